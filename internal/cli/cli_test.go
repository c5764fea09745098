package cli_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/livebud/sfcmod/internal/cli"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/transform"
	"github.com/matryer/is"
	"github.com/matthewmueller/virt"
	"github.com/rs/zerolog"
)

var newlines = regexp.MustCompile(`\n[\t ]*`)

// compact drops the line breaks the template printer puts around children
func compact(s string) string {
	return newlines.ReplaceAllString(s, "")
}

func setup(t testing.TB, fsys virt.Map) (*cli.CLI, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	if err := virt.Sync(fsys, dir); err != nil {
		t.Fatal(err)
	}
	stdout := new(bytes.Buffer)
	return &cli.CLI{Stdout: stdout, Stderr: io.Discard, Dir: dir}, stdout, dir
}

func read(t testing.TB, dir, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunWrites(t *testing.T) {
	is := is.New(t)
	c, stdout, dir := setup(t, virt.Map{
		"src/a.js":          "a()\n",
		"src/nested/b.js":   "'use strict';\nb()\n",
		"src/App.vue":       "<script>\nexport default {}\n</script>\n",
		"node_modules/x.js": "x()\n",
	})
	err := c.Parse(context.Background(), "run", "--transformation", "add-use-strict", "src/**/*.js")
	is.NoErr(err)
	is.Equal(read(t, dir, "src/a.js"), "'use strict';\na()\n")
	is.Equal(read(t, dir, "src/nested/b.js"), "'use strict';\nb()\n")
	is.Equal(read(t, dir, "src/App.vue"), "<script>\nexport default {}\n</script>\n")
	is.Equal(read(t, dir, "node_modules/x.js"), "x()\n")
	is.True(strings.Contains(stdout.String(), "src/a.js"))
	is.True(strings.Contains(stdout.String(), "2 processed, 1 changed, 1 unchanged, 0 failed"))
}

func TestRunDirectory(t *testing.T) {
	is := is.New(t)
	c, stdout, dir := setup(t, virt.Map{
		"src/a.js":    "a()\n",
		"src/App.vue": "<script>\nexport default {}\n</script>\n",
		"README.md":   "# readme\n",
	})
	err := c.Parse(context.Background(), "run", "-t", "add-use-strict")
	is.NoErr(err)
	is.Equal(read(t, dir, "src/a.js"), "'use strict';\na()\n")
	is.Equal(read(t, dir, "src/App.vue"), "<script>\n'use strict';\nexport default {}\n</script>\n")
	is.Equal(read(t, dir, "README.md"), "# readme\n")
	is.True(strings.Contains(stdout.String(), "2 processed, 2 changed"))
}

func TestRunDry(t *testing.T) {
	is := is.New(t)
	c, stdout, dir := setup(t, virt.Map{
		"a.js": "a()\n",
	})
	err := c.Parse(context.Background(), "run", "--transformation", "add-use-strict", "--dry", "a.js")
	is.NoErr(err)
	is.Equal(read(t, dir, "a.js"), "a()\n")
	// The transformed code is the actual side of the diff
	is.True(strings.Contains(stdout.String(), "Expect\x1b[0m:\na()\n"))
	is.True(strings.Contains(stdout.String(), "Actual\x1b[0m: \n'use strict';\na()\n"))
	is.True(strings.Contains(stdout.String(), "1 changed"))
}

func TestRunIsolatesFailures(t *testing.T) {
	is := is.New(t)
	c, stdout, dir := setup(t, virt.Map{
		"a.vue": "<template>\n  <h2>a</h2>\n</template>\n",
		"b.vue": "<template>\n  <h3>b</h3>\n</template>\n<template><p></p></template>\n",
	})
	err := c.Parse(context.Background(), "run", "--transformation", "root-heading", "--param", "rootHeading=1", "*.vue")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "1 of 2 files failed"))
	is.Equal(compact(read(t, dir, "a.vue")), "<template><h1>a</h1></template>")
	is.Equal(read(t, dir, "b.vue"), "<template>\n  <h3>b</h3>\n</template>\n<template><p></p></template>\n")
	is.True(strings.Contains(stdout.String(), "b.vue"))
	is.True(strings.Contains(stdout.String(), "1 failed"))
}

func TestRunPreset(t *testing.T) {
	is := is.New(t)
	c, _, dir := setup(t, virt.Map{
		"sfcmod.yaml": dedent.Dedent(`
			presets:
			  - name: headings
			    transformation: root-heading
			    glob: "components/*.vue"
			    params:
			      rootHeading: 3
		`),
		"components/A.vue": "<template>\n  <h1>a</h1>\n</template>\n",
		"pages/B.vue":      "<template>\n  <h1>b</h1>\n</template>\n",
	})
	err := c.Parse(context.Background(), "run", "--preset", "head")
	is.NoErr(err)
	is.Equal(compact(read(t, dir, "components/A.vue")), "<template><h3>a</h3></template>")
	is.Equal(read(t, dir, "pages/B.vue"), "<template>\n  <h1>b</h1>\n</template>\n")
	// Flags override the preset params
	err = c.Parse(context.Background(), "run", "--preset", "headings", "--params", "{rootHeading: 1}", "pages/B.vue")
	is.NoErr(err)
	is.Equal(read(t, dir, "pages/B.vue"), "<template>\n  <h1>b</h1>\n</template>\n")
}

func TestRunMissingTransformation(t *testing.T) {
	is := is.New(t)
	c, _, _ := setup(t, virt.Map{"a.js": "a()\n"})
	err := c.Parse(context.Background(), "run", "a.js")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "missing transformation"))
	err = c.Parse(context.Background(), "run", "--transformation", "nope", "a.js")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "Cannot find transformation module nope"))
}

func TestRunCustomRegistry(t *testing.T) {
	is := is.New(t)
	c, _, dir := setup(t, virt.Map{"a.js": "var a = 1\n"})
	r := registry.New(zerolog.Nop())
	r.MustRegister("let", "var to let", func(file transform.FileInfo, api *script.File, params transform.Params) (string, error) {
		for _, stmt := range api.Statements() {
			if strings.HasPrefix(stmt.Text, "var ") {
				api.Replace(stmt.Start, stmt.Start+3, "let")
			}
		}
		return api.String()
	})
	c.Registry = r
	is.NoErr(c.Parse(context.Background(), "run", "--transformation", "./transforms/let.go", "a.js"))
	is.Equal(read(t, dir, "a.js"), "let a = 1\n")
}

func TestList(t *testing.T) {
	is := is.New(t)
	c, stdout, _ := setup(t, virt.Map{
		"sfcmod.yaml": "presets:\n  - identity\n  - name: h\n    transformation: root-heading\n",
	})
	is.NoErr(c.Parse(context.Background(), "list"))
	out := stdout.String()
	is.True(strings.Contains(out, "add-use-strict (script)"))
	is.True(strings.Contains(out, "tailwind-scale (script, template)"))
	is.True(strings.Contains(out, "Presets"))
	is.True(strings.Contains(out, "h → root-heading"))
}

func TestGlob(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.NoErr(virt.Sync(virt.Map{
		"a.vue":              "",
		"src/b.vue":          "",
		"src/c/d.ts":         "",
		"src/c/e.css":        "",
		".git/f.js":          "",
		"node_modules/g.vue": "",
	}, dir))
	files, err := cli.Glob(dir, "**/*.vue")
	is.NoErr(err)
	is.Equal(files, []string{"a.vue", "src/b.vue"})
	files, err = cli.Glob(dir, "src/**/*.{vue,ts}")
	is.NoErr(err)
	is.Equal(files, []string{"src/b.vue", "src/c/d.ts"})
	files, err = cli.Glob(dir, ".")
	is.NoErr(err)
	is.Equal(files, []string{"a.vue", "src/b.vue", "src/c/d.ts"})
	files, err = cli.Glob(dir, "src/c/e.css")
	is.NoErr(err)
	is.Equal(files, []string{"src/c/e.css"})
	files, err = cli.Glob(dir, "{src,lib}/**/d.*")
	is.NoErr(err)
	is.Equal(files, []string{"src/c/d.ts"})
	files, err = cli.Glob(dir, "lib/**/*.vue")
	is.NoErr(err)
	is.Equal(len(files), 0)
	_, err = cli.Glob(dir, "missing.vue")
	is.True(err != nil)
	_, err = cli.Glob(dir, "src/[a.vue")
	is.True(err != nil)
}
