// Package compound renders compound expressions back into template source.
//
// The compiler fuses interpolations, text and rewritten identifiers into
// compound expressions without keeping an expression tree. Rendering falls
// back to concatenating the source text of each piece and then cleaning up
// artifacts the compiler introduced. This is best effort. Lookalike patterns
// inside nested template literals can still be rewritten.
package compound

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
)

// joiner is what the compiler puts between merged text pieces
const joiner = " + "

var (
	literals = regexp.MustCompile("`[^`]*`|\"[^\"]*\"|'[^']*'")
	pairs    = regexp.MustCompile(`([^:{} ,]+) *: *([^:{} ,]+)`)
)

// Render the likely source of a compound expression
func Render(exp *ast.CompoundExpression) string {
	hasInterpolations := false
	for _, part := range exp.Children {
		if _, ok := part.(*ast.Interpolation); ok {
			hasInterpolations = true
			break
		}
	}
	out := new(strings.Builder)
	for _, part := range exp.Children {
		piece := source(part)
		if hasInterpolations && piece == joiner {
			continue
		}
		out.WriteString(piece)
	}
	return Shorthand(out.String())
}

// Shorthand collapses { key: key } properties back into { key }. String
// literals are excluded when looking for pairs.
func Shorthand(code string) string {
	if !strings.Contains(code, "{") || !strings.Contains(code, "}") {
		return code
	}
	buffer := literals.ReplaceAllString(code, "")
	for _, match := range pairs.FindAllStringSubmatch(buffer, -1) {
		if match[1] != match[2] {
			continue
		}
		code = strings.Replace(code, match[0], match[1], 1)
	}
	return code
}

func source(part ast.Part) string {
	switch p := part.(type) {
	case ast.Str:
		return string(p)
	case *ast.CompoundExpression:
		return Render(p)
	case ast.Node:
		if loc := p.Location(); loc.Source != "" {
			return loc.Source
		}
		return generated(p)
	}
	return ""
}

// generated nodes have no source so they render from their fields
func generated(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Text:
		return n.Content
	case *ast.SimpleExpression:
		return strings.TrimPrefix(n.Content, "_ctx.")
	case *ast.Interpolation:
		return "{{ " + source(n.Content.(ast.Part)) + " }}"
	}
	return ""
}
