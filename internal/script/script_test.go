package script_test

import (
	"strings"
	"testing"

	"github.com/livebud/sfcmod/internal/js"
	"github.com/livebud/sfcmod/internal/script"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
)

func TestLang(t *testing.T) {
	is := is.New(t)
	is.Equal(script.Lang("a.vue", "ts"), "ts")
	is.Equal(script.Lang("a.vue", ""), "js")
	is.Equal(script.Lang("/tmp/a.tsx", ""), "tsx")
	is.Equal(script.Lang("a.mjs", ""), "mjs")
	is.Equal(script.Lang("a.cjs", ""), "cjs")
	is.Equal(script.Lang("a.md", ""), "js")
	is.True(script.IsTypeScript("ts"))
	is.True(script.IsTypeScript("tsx"))
	is.True(!script.IsTypeScript("js"))
}

func TestStatements(t *testing.T) {
	is := is.New(t)
	code := "// comment\nimport a from './a'\n\n/* b */\nconst b = 1\n\n// detached\n\nfunction c() {}\n"
	file, err := script.Parse("a.js", code, "js")
	is.NoErr(err)
	statements := file.Statements()
	is.Equal(len(statements), 3)
	is.Equal(statements[0].Text, "import a from './a'")
	is.Equal(statements[0].LeadingStart, 0)
	is.Equal(statements[1].Text, "const b = 1")
	is.Equal(code[statements[1].LeadingStart:statements[1].End], "/* b */\nconst b = 1")
	is.Equal(statements[2].Text, "function c() {}")
	is.Equal(statements[2].LeadingStart, statements[2].Start)
}

func TestDirectives(t *testing.T) {
	is := is.New(t)
	code := "// top\n'use strict';\n\"use client\"\nfoo()\n"
	file, err := script.Parse("a.js", code, "js")
	is.NoErr(err)
	directives := file.Directives()
	is.Equal(len(directives), 2)
	is.Equal(directives[0].Value, "use strict")
	is.Equal(code[directives[0].Start:directives[0].End], "'use strict';")
	is.Equal(directives[1].Value, "use client")
	is.True(file.HasDirective("use strict"))
	is.True(!file.HasDirective("use server"))
	statements := file.Statements()
	is.Equal(len(statements), 1)
	is.Equal(statements[0].Text, "foo()")
}

func TestNotDirectives(t *testing.T) {
	is := is.New(t)
	file, err := script.Parse("a.js", "'use strict'.length\n", "js")
	is.NoErr(err)
	is.Equal(len(file.Directives()), 0)
	file, err = script.Parse("a.js", "foo()\n'use strict'\n", "js")
	is.NoErr(err)
	is.Equal(len(file.Directives()), 0)
}

func TestEdits(t *testing.T) {
	is := is.New(t)
	code := "function a() { console.log('hello') }"
	file, err := script.Parse("/tmp/a.js", code, "js")
	is.NoErr(err)
	is.True(!file.Changed())
	first := file.Statements()[0]
	file.InsertBefore(first.LeadingStart, "'use strict';\n")
	is.True(file.Changed())
	out, err := file.String()
	is.NoErr(err)
	is.Equal(out, "'use strict';\nfunction a() { console.log('hello') }")
	// The original source is untouched
	is.Equal(file.Source(), code)
}

func TestEditsApplyInOrder(t *testing.T) {
	is := is.New(t)
	file, err := script.Parse("a.js", "let a = 1; let b = 2; let c = 3", "js")
	is.NoErr(err)
	file.Replace(26, 27, "c2")
	file.Remove(10, 21)
	file.InsertBefore(0, "/* 1 */ ")
	file.InsertBefore(0, "/* 2 */ ")
	out, err := file.String()
	is.NoErr(err)
	is.Equal(out, "/* 1 */ /* 2 */ let a = 1; let c2 = 3")
}

func TestOverlappingEdits(t *testing.T) {
	is := is.New(t)
	file, err := script.Parse("a.js", "let a = 1", "js")
	is.NoErr(err)
	file.Replace(0, 5, "const a")
	file.InsertBefore(2, "x")
	_, err = file.String()
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "overlaps"))
	file, err = script.Parse("a.js", "let a = 1", "js")
	is.NoErr(err)
	file.Replace(5, 100, "")
	_, err = file.String()
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "out of range"))
}

func TestRetypeParameter(t *testing.T) {
	is := is.New(t)
	code := "function a(name: string) { console.log('hello', name) }"
	file, err := script.Parse("/tmp/a.ts", code, script.Lang("/tmp/a.ts", ""))
	is.NoErr(err)
	tokens := file.Tokens()
	var prev js.Token
	for _, token := range tokens {
		if token.IsTrivia() {
			continue
		}
		if prev.Type == js.ColonToken && token.Text == "string" {
			file.Replace(token.Start, token.End(), "number")
		}
		prev = token
	}
	out, err := file.String()
	is.NoErr(err)
	diff.TestString(t, out, "function a(name: number) { console.log('hello', name) }")
	is.NoErr(script.Validate("/tmp/a.ts", out, "ts"))
}

func TestImports(t *testing.T) {
	is := is.New(t)
	code := "import { a } from '@orgname/old-package'\nconst b = () => import('./b')\n"
	file, err := script.Parse("a.js", code, "js")
	is.NoErr(err)
	imports := file.Imports()
	is.Equal(len(imports), 2)
	is.Equal(imports[0].Path, "@orgname/old-package")
	is.Equal(imports[1].Kind, "dynamic")
	is.Equal(code[imports[1].Start:imports[1].End], "'./b'")
}

func TestParseError(t *testing.T) {
	is := is.New(t)
	_, err := script.Parse("a.js", "const = 1", "js")
	is.True(err != nil)
	is.True(strings.HasPrefix(err.Error(), "script: unable to parse a.js"))
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(script.Validate("a.js", "const a = 1", "js"))
	is.NoErr(script.Validate("a.tsx", "const a: number = <div />", "tsx"))
	err := script.Validate("a.js", "const a: number = 1", "js")
	is.True(err != nil)
	is.True(strings.HasPrefix(err.Error(), "script: a.js:1:"))
}

func TestProgram(t *testing.T) {
	is := is.New(t)
	file, err := script.Parse("a.ts", "const a: number = 1\nexport default a\n", "ts")
	is.NoErr(err)
	program, err := file.Program()
	is.NoErr(err)
	is.Equal(len(program.BlockStmt.List), 2)
}
