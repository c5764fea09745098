// Package script is the editing surface handed to script transformations.
// Scripts are parsed once and edited with byte-range replacements so that
// everything a transformation doesn't touch is kept as written.
package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/livebud/sfcmod/internal/js"
)

// Import is an import record with the offsets of its quoted path
type Import = js.Import

// Statement is a top-level statement. LeadingStart includes the comments
// directly above the statement.
type Statement struct {
	Start        int
	End          int
	LeadingStart int
	Text         string
}

// Directive is a prologue directive like "use strict"
type Directive struct {
	Value string
	Start int
	End   int
}

// Lang returns the language of a script. The block's lang wins over the
// file extension.
func Lang(path, blockLang string) string {
	if blockLang != "" {
		return blockLang
	}
	switch ext := strings.TrimPrefix(filepath.Ext(path), "."); ext {
	case "js", "jsx", "ts", "tsx", "mjs", "cjs", "mts", "cts":
		return ext
	default:
		return "js"
	}
}

// IsTypeScript is true for the TypeScript flavors
func IsTypeScript(lang string) bool {
	return strings.HasPrefix(lang, "ts") || lang == "mts" || lang == "cts"
}

// File is a parsed script
type File struct {
	path   string
	lang   string
	source string
	module *js.Module
	tokens []js.Token
	edits  []edit
}

type edit struct {
	start, end int
	text       string
}

// Parse a script
func Parse(path, source, lang string) (*File, error) {
	module, err := js.ParseModule(source, lang)
	if err != nil {
		return nil, fmt.Errorf("script: unable to parse %s: %w", path, err)
	}
	tokens, err := js.Tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("script: unable to tokenize %s: %w", path, err)
	}
	return &File{
		path:   path,
		lang:   lang,
		source: source,
		module: module,
		tokens: tokens,
	}, nil
}

func (f *File) Path() string   { return f.path }
func (f *File) Lang() string   { return f.lang }
func (f *File) Source() string { return f.source }

// Tokens of the original source, including whitespace and comments
func (f *File) Tokens() []js.Token {
	return f.tokens
}

// Statements at the top level, not counting directives
func (f *File) Statements() []Statement {
	statements := make([]Statement, 0, len(f.module.Statements))
	prevEnd := 0
	for _, directive := range f.Directives() {
		prevEnd = directive.End
	}
	for _, stmt := range f.module.Statements {
		if stmt.Start < prevEnd {
			continue
		}
		statements = append(statements, Statement{
			Start:        stmt.Start,
			End:          stmt.End,
			LeadingStart: f.leadingStart(prevEnd, stmt.Start),
			Text:         f.source[stmt.Start:stmt.End],
		})
		prevEnd = stmt.End
	}
	return statements
}

// leadingStart walks back from a statement over the comments directly above
// it. A blank line detaches the comments above it.
func (f *File) leadingStart(min, start int) int {
	leading := start
	i := sort.Search(len(f.tokens), func(i int) bool {
		return f.tokens[i].Start >= start
	})
	newlines := 0
	for i--; i >= 0 && f.tokens[i].Start >= min; i-- {
		tok := f.tokens[i]
		switch {
		case !tok.IsTrivia():
			return leading
		case tok.Type == js.CommentToken || tok.Type == js.CommentLineToken:
			if newlines > 1 {
				return leading
			}
			leading = tok.Start
			newlines = 0
		default:
			newlines += strings.Count(tok.Text, "\n")
		}
	}
	return leading
}

// Directives in the prologue of the script
func (f *File) Directives() (directives []Directive) {
	tokens := f.tokens
	i := 0
	skip := func(lineBreaks bool) {
		for i < len(tokens) && tokens[i].IsTrivia() {
			if !lineBreaks && strings.Contains(tokens[i].Text, "\n") {
				return
			}
			i++
		}
	}
	for {
		skip(true)
		if i >= len(tokens) || tokens[i].Type != js.StringToken {
			return directives
		}
		str := tokens[i]
		i++
		skip(false)
		switch {
		case i >= len(tokens):
		case tokens[i].Type == js.SemicolonToken:
			i++
		case tokens[i].IsTrivia():
			// Line break ends the directive
		default:
			return directives
		}
		end := str.End()
		if i > 0 && tokens[i-1].Type == js.SemicolonToken {
			end = tokens[i-1].End()
		}
		directives = append(directives, Directive{
			Value: str.Text[1 : len(str.Text)-1],
			Start: str.Start,
			End:   end,
		})
	}
}

// HasDirective returns true if the prologue contains the directive
func (f *File) HasDirective(value string) bool {
	for _, directive := range f.Directives() {
		if directive.Value == value {
			return true
		}
	}
	return false
}

// Imports in the order they appear
func (f *File) Imports() []Import {
	return f.module.Imports
}

// Program is a queryable tree of the original source. TypeScript and JSX
// are lowered to JavaScript first, so offsets don't line up with Source.
func (f *File) Program() (*js.AST, error) {
	program, err := js.ParseProgram(f.path, f.source, f.lang)
	if err != nil {
		return nil, fmt.Errorf("script: unable to parse program %s: %w", f.path, err)
	}
	return program, nil
}

// Replace the original source between start and end
func (f *File) Replace(start, end int, text string) {
	f.edits = append(f.edits, edit{start, end, text})
}

// InsertBefore inserts text at an offset of the original source
func (f *File) InsertBefore(offset int, text string) {
	f.Replace(offset, offset, text)
}

// Remove the original source between start and end
func (f *File) Remove(start, end int) {
	f.Replace(start, end, "")
}

// Changed returns true if any edits were made
func (f *File) Changed() bool {
	return len(f.edits) > 0
}

// String applies the edits to the original source
func (f *File) String() (string, error) {
	edits := append([]edit{}, f.edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})
	var out strings.Builder
	cursor := 0
	for _, e := range edits {
		if e.start < 0 || e.end > len(f.source) || e.start > e.end {
			return "", fmt.Errorf("script: edit %d:%d is out of range in %s", e.start, e.end, f.path)
		}
		if e.start < cursor {
			return "", fmt.Errorf("script: edit %d:%d overlaps a previous edit in %s", e.start, e.end, f.path)
		}
		out.WriteString(f.source[cursor:e.start])
		out.WriteString(e.text)
		cursor = e.end
	}
	out.WriteString(f.source[cursor:])
	return out.String(), nil
}

// Validate checks that code is syntactically valid
func Validate(path, code, lang string) error {
	result := esbuild.Transform(code, esbuild.TransformOptions{
		Sourcefile: path,
		Loader:     loader(lang),
		LogLevel:   esbuild.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(result.Errors))
	for i, msg := range result.Errors {
		if msg.Location == nil {
			errs[i] = fmt.Errorf("script: %s: %s", path, msg.Text)
			continue
		}
		errs[i] = fmt.Errorf("script: %s:%d:%d: %s", path, msg.Location.Line, msg.Location.Column, msg.Text)
	}
	return errors.Join(errs...)
}

func loader(lang string) esbuild.Loader {
	switch lang {
	case "ts", "mts", "cts":
		return esbuild.LoaderTS
	case "tsx":
		return esbuild.LoaderTSX
	case "jsx":
		return esbuild.LoaderJSX
	default:
		return esbuild.LoaderJS
	}
}
