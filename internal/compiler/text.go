package compiler

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
)

var whitespace = regexp.MustCompile(`[\t\r\n\f ]+`)

func isWhitespace(s string) bool {
	return strings.Trim(s, "\t\r\n\f ") == ""
}

// condense collapses whitespace in a children list. Whitespace only text is
// dropped at the edges and between elements on different lines. Loc.Source
// keeps the original text.
func condense(children []ast.Child, pre bool) []ast.Child {
	if pre {
		return children
	}
	removed := make([]bool, len(children))
	kind := func(i int) string {
		if i < 0 || i >= len(children) || removed[i] {
			return ""
		}
		switch children[i].(type) {
		case *ast.Comment:
			return "comment"
		case *ast.Element:
			return "element"
		}
		return "other"
	}
	out := make([]ast.Child, 0, len(children))
	for i, child := range children {
		text, ok := child.(*ast.Text)
		if !ok {
			out = append(out, child)
			continue
		}
		if !isWhitespace(text.Content) {
			text.Content = whitespace.ReplaceAllString(text.Content, " ")
			out = append(out, text)
			continue
		}
		prev, next := kind(i-1), kind(i+1)
		if prev == "" || next == "" ||
			(prev == "comment" && (next == "comment" || next == "element")) ||
			(prev == "element" && next == "comment") ||
			(prev == "element" && next == "element" && strings.ContainsAny(text.Content, "\r\n")) {
			removed[i] = true
			continue
		}
		text.Content = " "
		out = append(out, text)
	}
	return out
}

// mergeText joins adjacent text and interpolations. Text that sits next to
// other children becomes a text call.
func mergeText(parent ast.Node, children []ast.Child) []ast.Child {
	var out []ast.Child
	hasText := false
	for i := 0; i < len(children); i++ {
		child := children[i]
		if !isText(child) {
			out = append(out, child)
			continue
		}
		hasText = true
		var compound *ast.CompoundExpression
		for j := i + 1; j < len(children) && isText(children[j]); j++ {
			if compound == nil {
				compound = &ast.CompoundExpression{
					Children: []ast.Part{child.(ast.Part)},
					Loc:      child.Location(),
				}
			}
			compound.Children = append(compound.Children, ast.Str(" + "), children[j].(ast.Part))
			i = j
		}
		if compound != nil {
			out = append(out, compound)
			continue
		}
		out = append(out, child)
	}
	if !hasText || (len(out) == 1 && isPlain(parent)) {
		return out
	}
	for i, child := range out {
		switch child.(type) {
		case *ast.Text, *ast.Interpolation, *ast.CompoundExpression:
			out[i] = &ast.TextCall{Content: child, Loc: child.Location()}
		}
	}
	return out
}

func isText(child ast.Child) bool {
	switch child.(type) {
	case *ast.Text, *ast.Interpolation:
		return true
	}
	return false
}

func isPlain(parent ast.Node) bool {
	switch p := parent.(type) {
	case *ast.Root:
		return true
	case *ast.Element:
		return p.TagType == ast.ElementPlain
	}
	return false
}
