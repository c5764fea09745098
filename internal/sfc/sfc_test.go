package sfc_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/livebud/sfcmod/internal/sfc"
	"github.com/livebud/sfcmod/internal/sourcemap"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
	"github.com/rs/zerolog"
)

func roundtrip(t *testing.T, name, input string) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		result := sfc.Parse(input, sfc.Options{Filename: "App.vue"})
		for _, err := range result.Errors {
			t.Fatal(err)
		}
		diff.TestString(t, sfc.Stringify(result.Descriptor), input)
	})
}

func TestRoundtrip(t *testing.T) {
	roundtrip(t, "empty", "")
	roundtrip(t, "template", "<template><div>hi</div></template>")
	roundtrip(t, "everything", dedent.Dedent(`
		<template>
		  <div :class="{ active }" @click="go">{{ msg }}</div>
		</template>

		<script>
		export default { name: 'App' }
		</script>

		<script setup lang='ts'>
		const msg: string = "hi" // <div>
		</script>

		<style scoped>
		.a { color: red }
		</style>
		<style lang="scss" module>
		.b { .c { color: blue } }
		</style>

		<i18n locale="en">{ "hello": "world" }</i18n>
	`))
	roundtrip(t, "unsorted attributes", `<script setup lang="ts">let a = 1</script>`)
	roundtrip(t, "comments", "<!-- top -->\n<template>\n  <!-- inside -->\n</template>\n")
	roundtrip(t, "empty template", "<template></template>\n<script>a()</script>\n")
	roundtrip(t, "skipped empty blocks", "<style></style>\n<script>a()</script>\n<docs></docs>\n")
	roundtrip(t, "self closing src", `<script src="./a.js" />`+"\n<template><p/></template>\n")
	roundtrip(t, "crlf", "<template>\r\n  <p>a</p>\r\n</template>\r\n<script>\r\na()\r\n</script>\r\n")
	roundtrip(t, "pug", "<template lang=\"pug\">\ndiv\n  p {{ a < b }}\n</template>\n")
	roundtrip(t, "script with markup", "<script>\nconst html = '<div></div>' + '</scrip' + 't>'\nif (a < b && c > d) {}\n</script>\n")
}

func TestDescriptor(t *testing.T) {
	is := is.New(t)
	source := dedent.Dedent(`
		<template>
		  <p>{{ a }}</p>
		</template>
		<script setup lang="ts">
		const a = 1
		</script>
		<style scoped module="classes" lang="css">
		.a {}
		</style>
		<style>.b {}</style>
		<docs>Read me</docs>
	`)[1:]
	result := sfc.Parse(source, sfc.Options{})
	is.Equal(len(result.Errors), 0)
	d := result.Descriptor
	is.Equal(d.Filename, "anonymous.vue")
	is.Equal(d.Source, source)
	is.True(d.Template != nil)
	is.Equal(d.Template.Content, "\n  <p>{{ a }}</p>\n")
	is.Equal(d.Template.Loc.Start.Line, 1)
	is.Equal(d.Template.Loc.Start.Column, 11)
	is.Equal(d.Template.Loc.Start.Offset, 10)
	is.Equal(d.Script, nil)
	is.True(d.ScriptSetup != nil)
	is.Equal(d.ScriptSetup.Content, "\nconst a = 1\n")
	is.Equal(d.ScriptSetup.Lang, "ts")
	is.True(d.ScriptSetup.Setup)
	is.Equal(d.ScriptSetup.Attrs, map[string]string{"setup": "", "lang": "ts"})
	is.Equal(d.ScriptSetup.Loc.Start.Line, 4)
	is.Equal(len(d.Styles), 2)
	is.True(d.Styles[0].Scoped)
	is.Equal(d.Styles[0].Module, "classes")
	is.Equal(d.Styles[0].Lang, "css")
	is.Equal(d.Styles[1].Content, ".b {}")
	is.Equal(len(d.CustomBlocks), 1)
	is.Equal(d.CustomBlocks[0].Type, "docs")
	is.Equal(d.CustomBlocks[0].Content, "Read me")
	blocks := d.Blocks()
	is.Equal(len(blocks), 5)
	is.Equal(blocks[0], d.Template)
	is.Equal(blocks[1], d.ScriptSetup)
}

func TestErrors(t *testing.T) {
	is := is.New(t)
	messages := func(source string) (out []string) {
		for _, err := range sfc.Parse(source, sfc.Options{}).Errors {
			out = append(out, err.Error())
		}
		return out
	}
	is.Equal(messages("<template>a</template><template>b</template>"), []string{
		"Single file component can contain only one <template> element",
	})
	is.Equal(messages("<script>a</script><script>b</script><script setup>c</script><script setup>d</script>"), []string{
		"Single file component can contain only one <script> element",
		"Single file component can contain only one <script setup> element",
	})
	is.Equal(messages("<style vars=\"{ color }\">.a { color: var(--color) }</style>"), []string{
		"<style vars> has been replaced by a new proposal: https://github.com/vuejs/rfcs/pull/231",
	})
	is.Equal(messages(`<script setup src="./a.ts"></script>`), []string{
		`<script setup> cannot use the "src" attribute because its syntax will be ambiguous outside of the component.`,
	})
	is.Equal(messages(`<script src="./a.js"></script><script setup>a</script>`), []string{
		`<script> cannot use the "src" attribute when <script setup> is also present because they must be processed together.`,
	})
}

func TestErrorsKeepFirstBlock(t *testing.T) {
	is := is.New(t)
	result := sfc.Parse("<template>a</template>\n<template>b</template>\n", sfc.Options{})
	is.Equal(len(result.Errors), 1)
	is.Equal(result.Descriptor.Template.Content, "a")
	var syntaxErr *sfc.SyntaxError
	is.True(errors.As(result.Errors[0], &syntaxErr))
	is.Equal(syntaxErr.Loc.Start.Line, 2)
	// The discarded template is kept in the output
	is.Equal(result.Descriptor.String(), "<template>a</template>\n<template>b</template>\n")
}

func TestDiscardedSetupSrc(t *testing.T) {
	is := is.New(t)
	result := sfc.Parse(`<script src="./a.js"></script>`+"\n"+`<script setup>a</script>`, sfc.Options{})
	is.Equal(len(result.Errors), 1)
	is.Equal(result.Descriptor.Script, nil)
	is.True(result.Descriptor.ScriptSetup != nil)
}

func TestInvalidDocument(t *testing.T) {
	is := is.New(t)
	result := sfc.Parse("<template><div></template>", sfc.Options{})
	is.Equal(len(result.Errors), 1)
	is.Equal(result.Descriptor.Template, nil)
}

func TestIgnoreEmpty(t *testing.T) {
	is := is.New(t)
	source := "<template>\n</template>\n<script>\n\n</script>\n<style src=\"./a.css\">\n</style>\n"
	d := sfc.Parse(source, sfc.Options{}).Descriptor
	is.True(d.Script != nil)
	d = sfc.Parse(source, sfc.Options{IgnoreEmpty: true}).Descriptor
	is.Equal(d.Script, nil)
	is.True(d.Template != nil)
	is.Equal(len(d.Styles), 1)
	is.Equal(d.Styles[0].Src, "./a.css")
	is.Equal(d.String(), source)
}

func TestUpdateContent(t *testing.T) {
	is := is.New(t)
	source := dedent.Dedent(`
		<template>
		  <p>a</p>
		</template>

		<script setup lang="ts">
		const a = 1
		</script>

		<style scoped>
		.a {}
		</style>
	`)[1:]
	d := sfc.Parse(source, sfc.Options{}).Descriptor
	d.ScriptSetup.Content = "\n'use strict';\nconst a = 1\n"
	diff.TestString(t, d.String(), dedent.Dedent(`
		<template>
		  <p>a</p>
		</template>

		<script lang="ts" setup>
		'use strict';
		const a = 1
		</script>

		<style scoped>
		.a {}
		</style>
	`)[1:])
	d.Styles[0].SetAttr("lang", "scss")
	is.Equal(d.Styles[0].Lang, "scss")
	is.True(strings.Contains(d.String(), "<style lang=\"scss\" scoped>\n.a {}\n</style>"))
	d.ScriptSetup.RemoveAttr("setup")
	is.Equal(d.ScriptSetup.Setup, false)
	is.True(strings.Contains(d.String(), "<script lang=\"ts\">\n'use strict';"))
}

func TestRemoveAndAddBlocks(t *testing.T) {
	source := "<template><p/></template>\n<script>a()</script>\n<style>.a{}</style>\n"
	d := sfc.Parse(source, sfc.Options{}).Descriptor
	d.Script = nil
	d.CustomBlocks = append(d.CustomBlocks, sfc.NewBlock("docs", "Hello", map[string]string{"lang": "md"}))
	diff.TestString(t, d.String(), "<template><p/></template>\n<style>.a{}</style>\n<docs lang=\"md\">Hello</docs>\n")
}

func TestSelfClosingGainsContent(t *testing.T) {
	d := sfc.Parse(`<custom src="./a.json"/>`, sfc.Options{}).Descriptor
	d.CustomBlocks[0].Content = "{}"
	diff.TestString(t, d.String(), `<custom src="./a.json">{}</custom>`)
}

func TestStringifyWithoutSource(t *testing.T) {
	d := &sfc.Descriptor{
		Template: &sfc.Block{Type: "template", Content: "<p/>"},
		Script: &sfc.Block{
			Type:    "script",
			Content: "a()",
			Attrs:   map[string]string{"setup": "", "lang": "ts"},
		},
	}
	d.Template.Loc.Start.Offset = 10
	d.Template.Loc.End.Offset = 14
	d.Script.Loc.Start.Offset = 51
	d.Script.Loc.End.Offset = 54
	diff.TestString(t, d.String(), "<template><p/></template>\n\n<script lang=\"ts\" setup>a()</script>\n")
}

func TestPadLine(t *testing.T) {
	is := is.New(t)
	source := "<template>\n  <p/>\n</template>\n<script>\nlet a\n</script>\n<script setup lang=\"ts\">\nlet b\n</script>\n"
	d := sfc.Parse(source, sfc.Options{Pad: "line"}).Descriptor
	is.Equal(d.Template.Content, "\n  <p/>\n")
	is.Equal(d.Script.Content, "//\n//\n//\n\nlet a\n")
	is.Equal(d.ScriptSetup.Content, "\n\n\n\n\n\n\nlet b\n")
	// Padding never ends up in the output
	is.Equal(d.String(), source)
	d.Script.Content += "let c\n"
	is.Equal(d.String(), strings.Replace(source, "let a\n", "let a\nlet c\n", 1))
}

func TestPadSpace(t *testing.T) {
	is := is.New(t)
	source := "<docs>a</docs>\n<style>.a {}</style>"
	d := sfc.Parse(source, sfc.Options{Pad: "space"}).Descriptor
	is.Equal(d.Styles[0].Content, strings.Repeat(" ", 14)+"\n"+strings.Repeat(" ", 7)+".a {}")
	is.Equal(d.String(), source)
}

func TestSourceMap(t *testing.T) {
	is := is.New(t)
	source := "<template>\n  <p/>\n</template>\n<script>\n  let a\n\n</script>\n"
	d := sfc.Parse(source, sfc.Options{Filename: `src\App.vue`, SourceMap: true}).Descriptor
	is.Equal(d.Template.Map, nil)
	m := d.Script.Map
	is.True(m != nil)
	is.Equal(m.File, "src/App.vue")
	is.Equal(m.Sources, []string{`src\App.vue`})
	is.Equal(m.SourcesContent, []string{source})
	mappings, err := sourcemap.Decode(m)
	is.NoErr(err)
	// "  let a" is the second line of the content and the fifth of the file
	is.Equal(len(mappings), 4)
	for _, mapping := range mappings {
		is.Equal(mapping.GeneratedLine, 2)
		is.Equal(mapping.OriginalLine, 5)
		is.Equal(mapping.GeneratedColumn, mapping.OriginalColumn)
	}
	is.Equal(mappings[0].GeneratedColumn, 2)
	is.Equal(mappings[3].GeneratedColumn, 6)
}

func TestSourceMapTemplateLang(t *testing.T) {
	is := is.New(t)
	source := "<template lang=\"pug\">\np hi\n</template>\n"
	d := sfc.Parse(source, sfc.Options{SourceMap: true}).Descriptor
	is.True(d.Template.Map != nil)
	mappings, err := sourcemap.Decode(d.Template.Map)
	is.NoErr(err)
	is.Equal(len(mappings), 3)
	is.Equal(mappings[0].OriginalLine, 2)
}

func TestSourceMapPadded(t *testing.T) {
	is := is.New(t)
	source := "<template><p/></template>\n<script>\nlet a\n</script>\n"
	d := sfc.Parse(source, sfc.Options{SourceMap: true, Pad: "line"}).Descriptor
	mappings, err := sourcemap.Decode(d.Script.Map)
	is.NoErr(err)
	// The "//" pad line is skipped and lines line up with the file
	is.Equal(len(mappings), 4)
	is.Equal(mappings[0].GeneratedLine, 3)
	is.Equal(mappings[0].OriginalLine, 3)
}

func TestCacheReturnsCopies(t *testing.T) {
	is := is.New(t)
	source := "<script>a()</script>"
	first := sfc.Parse(source, sfc.Options{})
	first.Descriptor.Script.Content = "b()"
	first.Descriptor.Script.SetAttr("lang", "ts")
	second := sfc.Parse(source, sfc.Options{})
	is.Equal(second.Descriptor.Script.Content, "a()")
	is.Equal(second.Descriptor.Script.Lang, "")
	is.Equal(len(second.Descriptor.Script.Attrs), 0)
	second.Descriptor.Script.Content = "c()"
	third := sfc.Parse(source, sfc.Options{})
	is.Equal(third.Descriptor.Script.Content, "a()")
	// Different options are a different entry
	fourth := sfc.Parse(source, sfc.Options{Pad: "line"})
	is.Equal(fourth.Descriptor.Script.Content, "a()")
}

func TestCacheKeySeparatesOptions(t *testing.T) {
	is := is.New(t)
	p := sfc.New(zerolog.Nop())
	first := p.Parse("<template>a</template>", sfc.Options{SourceMap: true, Filename: "falseX.vue"})
	is.Equal(first.Descriptor.Filename, "falseX.vue")
	second := p.Parse("<template>a</template>true", sfc.Options{SourceMap: false, Filename: "X.vue"})
	is.Equal(second.Descriptor.Source, "<template>a</template>true")
	is.Equal(second.Descriptor.Filename, "X.vue")
	is.Equal(p.Cached(), 2)
}

func script(fill string, n int) string {
	return "<script>" + strings.Repeat(fill, n) + "</script>"
}

func TestCacheSizeBudget(t *testing.T) {
	is := is.New(t)
	p := sfc.New(zerolog.Nop())
	p.Parse(script("a", 1000), sfc.Options{})
	is.Equal(p.Cached(), 1)
	// Two of these exceed the budget so the oldest goes
	p.Parse(script("b", 1000), sfc.Options{})
	is.Equal(p.Cached(), 1)
	// Larger than the whole budget is never cached
	p.Parse(script("c", 2000), sfc.Options{})
	is.Equal(p.Cached(), 1)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	is := is.New(t)
	buf := new(bytes.Buffer)
	p := sfc.NewWithLimits(zerolog.New(buf), 3, 1<<20)
	p.Parse(script("a", 1), sfc.Options{})
	p.Parse(script("b", 1), sfc.Options{})
	p.Parse(script("c", 1), sfc.Options{})
	is.Equal(p.Cached(), 3)
	p.Parse(script("a", 1), sfc.Options{})
	is.Equal(strings.Count(buf.String(), "cache hit"), 1)
	p.Parse(script("d", 1), sfc.Options{})
	is.Equal(p.Cached(), 3)
	// b was the least recently used
	p.Parse(script("a", 1), sfc.Options{})
	p.Parse(script("c", 1), sfc.Options{})
	is.Equal(strings.Count(buf.String(), "cache hit"), 3)
	p.Parse(script("b", 1), sfc.Options{})
	is.Equal(strings.Count(buf.String(), "cache hit"), 3)
}

func TestCacheEntryBound(t *testing.T) {
	is := is.New(t)
	p := sfc.NewWithLimits(zerolog.Nop(), 500, 1<<30)
	for i := 0; i < 600; i++ {
		p.Parse(strings.Repeat(" ", i), sfc.Options{})
	}
	is.Equal(p.Cached(), 500)
}
