package style_test

import (
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/livebud/sfcmod/internal/style"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
)

func roundtrip(t *testing.T, lang, input string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		root, err := style.Parse("a."+lang, input, lang)
		if err != nil {
			t.Fatal(err)
		}
		diff.TestString(t, root.String(), input)
	})
}

func TestRoundtrip(t *testing.T) {
	roundtrip(t, "css", "")
	roundtrip(t, "css", ".foo { color: red; }")
	roundtrip(t, "css", ".a{color:red}")
	roundtrip(t, "css", "\n#app {\n  font-family: Avenir, Helvetica, Arial, sans-serif;\n  margin-top: 60px;\n}\n")
	roundtrip(t, "css", dedent.Dedent(`
		@import "a.css";
		@media (max-width: 10px) {
		  .b { margin: 0 !important; }
		}
		/* c */
		a:hover, a:not(.x, .y) { background: url(//cdn/a.png) }
		;
	`))
	roundtrip(t, "scss", dedent.Dedent(`
		// line
		$size: 10px;
		.a {
		  &:hover { color: red; }
		  .b-#{$x} { top: 0 }
		  @include mixin;
		}
	`))
	roundtrip(t, "less", "@color: red; .foo { color: @color; .mixin(); }")
}

func TestWalkRules(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".foo { color: red; }", "css")
	is.NoErr(err)
	root.WalkRules(".foo", func(rule *style.Rule) {
		rule.Selector = ".bar"
	})
	is.Equal(root.String(), ".bar { color: red; }")
}

func TestWalkDecls(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".foo { color: red; background: red; }", "css")
	is.NoErr(err)
	root.WalkDecls("color", func(decl *style.Decl) {
		decl.Value = "blue"
	})
	is.Equal(root.String(), ".foo { color: blue; background: red; }")
}

func TestNestedScss(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.scss", ".foo { .bar { color: red; } }", "scss")
	is.NoErr(err)
	rules := 0
	root.WalkRules(".bar", func(rule *style.Rule) {
		rules++
		rule.WalkDecls("color", func(decl *style.Decl) {
			decl.Value = "blue"
		})
	})
	is.Equal(rules, 1)
	is.Equal(root.String(), ".foo { .bar { color: blue; } }")
}

func TestLessVariables(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.less", "@color: red; .foo { color: @color; }", "less")
	is.NoErr(err)
	root.WalkAtRules("color", func(rule *style.AtRule) {
		is.Equal(rule.Params, "red")
		rule.Params = "blue"
	})
	is.Equal(root.String(), "@color: blue; .foo { color: @color; }")
}

func TestImportant(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", "a { color: red !important; top: 0 }", "css")
	is.NoErr(err)
	var decls []*style.Decl
	root.WalkDecls("", func(decl *style.Decl) {
		decls = append(decls, decl)
	})
	is.Equal(len(decls), 2)
	is.True(decls[0].Important)
	is.Equal(decls[0].Value, "red")
	is.True(!decls[1].Important)
	decls[0].Important = false
	decls[1].Important = true
	is.Equal(root.String(), "a { color: red; top: 0 !important }")
}

func TestComments(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.scss", "/* block */\n// line\na { top: 0 }", "scss")
	is.NoErr(err)
	var comments []*style.Comment
	root.WalkComments(func(comment *style.Comment) {
		comments = append(comments, comment)
	})
	is.Equal(len(comments), 2)
	is.Equal(comments[0].Text, "block")
	is.True(!comments[0].Inline)
	is.Equal(comments[1].Text, "line")
	is.True(comments[1].Inline)
	comments[0].Remove()
	is.Equal(root.String(), "\n// line\na { top: 0 }")
}

func TestNewRoot(t *testing.T) {
	is := is.New(t)
	root := style.NewRoot(style.NewRule(".transformed", style.NewDecl("font-size", "16px")))
	is.Equal(root.String(), ".transformed {\n    font-size: 16px\n}")
}

func TestPrependInfersFormatting(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".a {\n  color: #333333;\n}\n", "css")
	is.NoErr(err)
	root.Prepend(style.NewRule(":root", style.NewDecl("--color-text", "#333333")))
	diff.TestString(t, root.String(), ":root {\n  --color-text: #333333;\n}\n.a {\n  color: #333333;\n}\n")
}

func TestAppendSpacesLikeSiblings(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".a {}\n\n.b {}", "css")
	is.NoErr(err)
	root.Append(style.NewRule(".c"))
	is.Equal(root.String(), ".a {}\n\n.b {}\n\n.c {}")
}

func TestRemove(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".a { color: red; top: 0; }", "css")
	is.NoErr(err)
	root.WalkDecls("color", func(decl *style.Decl) {
		decl.Remove()
	})
	is.Equal(root.String(), ".a { top: 0; }")
	is.Equal(len(root.Nodes()), 1)
}

func TestInsert(t *testing.T) {
	is := is.New(t)
	root, err := style.Parse("a.css", ".a { top: 0; }", "css")
	is.NoErr(err)
	rule := root.Nodes()[0].(*style.Rule)
	top := rule.Nodes()[0]
	is.NoErr(rule.InsertBefore(top, style.NewDecl("left", "0")))
	is.NoErr(rule.InsertAfter(top, style.NewDecl("right", "0")))
	is.Equal(len(rule.Nodes()), 3)
	is.Equal(rule.Nodes()[0].(*style.Decl).Prop, "left")
	is.Equal(rule.Nodes()[2].(*style.Decl).Prop, "right")
	is.True(rule.InsertBefore(style.NewDecl("x", "y")) != nil)
	// Moving a node detaches it from its old parent
	other := style.NewRule(".b")
	other.Append(top)
	is.Equal(len(rule.Nodes()), 2)
	is.Equal(top.Parent(), style.Container(other))
}

func TestNewAtRule(t *testing.T) {
	is := is.New(t)
	root := style.NewRoot(style.NewAtRule("import", `"a.css"`))
	root.Append(style.NewAtRule("media", "print", style.NewRule("a", style.NewDecl("color", "black"))))
	is.Equal(root.String(), "@import \"a.css\";\n@media print {\n    a {\n        color: black\n    }\n}")
}

func TestSelectors(t *testing.T) {
	is := is.New(t)
	rule := style.NewRule(".a,  .b:not(.c, .d) ,[x=\",\"]")
	is.Equal(rule.Selectors(), []string{".a", ".b:not(.c, .d)", `[x=","]`})
}

func TestErrors(t *testing.T) {
	is := is.New(t)
	_, err := style.Parse("a.css", ".foo { color: red", "css")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "Unclosed block"))
	_, err = style.Parse("a.css", ".foo { color }", "css")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "a.css:1:8: Unknown word"))
	_, err = style.Parse("a.css", "}", "css")
	is.True(err != nil)
	_, err = style.Parse("a.scss", ".foo { color }", "scss")
	is.NoErr(err)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(style.Validate("a.css", ".foo { color: red; }", "css"))
	is.NoErr(style.Validate("a.less", "@color: red;", "less"))
}

func TestLang(t *testing.T) {
	is := is.New(t)
	is.Equal(style.Lang(""), "css")
	is.Equal(style.Lang("scss"), "scss")
}
