package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#10b981")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	nameStyle    = lipgloss.NewStyle().Bold(true)
)

func sortSummary(s *Summary) {
	sort.Strings(s.Changed)
	sort.Slice(s.Errors, func(i, j int) bool {
		return s.Errors[i].Path < s.Errors[j].Path
	})
}

// Unchanged is the number of files that were processed without changes or
// errors
func (s *Summary) Unchanged() int {
	return s.Processed - len(s.Changed) - len(s.Errors)
}

func (s *Summary) String() string {
	var b strings.Builder
	for _, path := range s.Changed {
		b.WriteString(successStyle.Render("✓") + " " + path + "\n")
	}
	for _, err := range s.Errors {
		b.WriteString(errorStyle.Render("✗") + " " + err.Path + " " + mutedStyle.Render(err.Err.Error()) + "\n")
	}
	line := fmt.Sprintf("%d processed, %s, %s, %s",
		s.Processed,
		successStyle.Render(fmt.Sprintf("%d changed", len(s.Changed))),
		mutedStyle.Render(fmt.Sprintf("%d unchanged", s.Unchanged())),
		errorStyle.Render(fmt.Sprintf("%d failed", len(s.Errors))),
	)
	b.WriteString(line + "\n")
	return b.String()
}
