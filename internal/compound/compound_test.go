package compound_test

import (
	"testing"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/compound"
	"github.com/matryer/is"
)

func simple(source string) *ast.SimpleExpression {
	return &ast.SimpleExpression{
		Content: "_ctx." + source,
		Loc:     ast.Loc{Start: ast.Position{Line: 1, Column: 1}, Source: source},
	}
}

func TestRenderSources(t *testing.T) {
	is := is.New(t)
	exp := &ast.CompoundExpression{
		Children: []ast.Part{simple("count"), ast.Str(" + 1")},
	}
	is.Equal(compound.Render(exp), "count + 1")
}

func TestRenderDropsJoinersWithInterpolations(t *testing.T) {
	is := is.New(t)
	exp := &ast.CompoundExpression{
		Children: []ast.Part{
			&ast.Text{Content: "Hello ", Loc: ast.Loc{Source: "Hello "}},
			ast.Str(" + "),
			&ast.Interpolation{Content: simple("name"), Loc: ast.Loc{Source: "{{ name }}"}},
		},
	}
	is.Equal(compound.Render(exp), "Hello {{ name }}")
}

func TestRenderKeepsJoinersWithoutInterpolations(t *testing.T) {
	is := is.New(t)
	exp := &ast.CompoundExpression{
		Children: []ast.Part{simple("a"), ast.Str(" + "), simple("b")},
	}
	is.Equal(compound.Render(exp), "a + b")
}

func TestRenderGenerated(t *testing.T) {
	is := is.New(t)
	exp := &ast.CompoundExpression{
		Children: []ast.Part{
			&ast.Text{Content: "Total: "},
			ast.Str(" + "),
			&ast.Interpolation{Content: &ast.SimpleExpression{Content: "_ctx.total"}},
		},
	}
	is.Equal(compound.Render(exp), "Total: {{ total }}")
}

func TestRenderNested(t *testing.T) {
	is := is.New(t)
	inner := &ast.CompoundExpression{Children: []ast.Part{simple("a"), ast.Str(".b")}}
	exp := &ast.CompoundExpression{Children: []ast.Part{ast.Str("!"), inner}}
	is.Equal(compound.Render(exp), "!a.b")
}

func TestShorthand(t *testing.T) {
	is := is.New(t)
	is.Equal(compound.Shorthand("{ foo: foo }"), "{ foo }")
	is.Equal(compound.Shorthand("{ foo: foo, bar: baz }"), "{ foo, bar: baz }")
	is.Equal(compound.Shorthand("{foo:foo}"), "{foo}")
	is.Equal(compound.Shorthand("{ 'is-active': active }"), "{ 'is-active': active }")
	// Without braces nothing changes
	is.Equal(compound.Shorthand("a ? b : b"), "a ? b : b")
}

func TestShorthandSkipsStrings(t *testing.T) {
	is := is.New(t)
	is.Equal(compound.Shorthand(`{ label: "a: a" }`), `{ label: "a: a" }`)
	is.Equal(compound.Shorthand("{ label: `x: y`, x: x }"), "{ label: `x: y`, x }")
}

func TestRenderShorthandExpansion(t *testing.T) {
	is := is.New(t)
	// {{ { count } }} is prefixed into { count: _ctx.count }
	exp := &ast.CompoundExpression{
		Children: []ast.Part{ast.Str("{ "), ast.Str("count: "), simple("count"), ast.Str(" }")},
	}
	is.Equal(compound.Render(exp), "{ count }")
}
