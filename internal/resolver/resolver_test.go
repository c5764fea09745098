package resolver_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/livebud/sfcmod/internal/resolver"
	"github.com/matryer/is"
	"github.com/matthewmueller/virt"
)

func TestResolveFromRoot(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.NoErr(virt.Sync(virt.Map{
		"add-use-strict/input.vue": `<script>a()</script>`,
	}, dir))
	res := resolver.New(dir)
	file, err := res.Resolve(&resolver.Resolve{
		Path: "/add-use-strict/input.vue",
	})
	is.NoErr(err)
	is.Equal(file.Path, "add-use-strict/input.vue")
	is.Equal(string(file.Code), `<script>a()</script>`)
}

func TestResolveFromFile(t *testing.T) {
	is := is.New(t)
	res := resolver.Embedded{
		"add-use-strict/input.vue":  []byte(`<script>a()</script>`),
		"add-use-strict/output.vue": []byte(`<script>'use strict';a()</script>`),
	}
	file, err := res.Resolve(&resolver.Resolve{
		From: "add-use-strict/input.vue",
		Path: "./output.vue",
	})
	is.NoErr(err)
	is.Equal(file.Path, "add-use-strict/output.vue")
	is.Equal(string(file.Code), `<script>'use strict';a()</script>`)
}

func TestResolveMissing(t *testing.T) {
	is := is.New(t)
	res := resolver.New(t.TempDir())
	_, err := res.Resolve(&resolver.Resolve{Path: "missing.vue"})
	is.True(errors.Is(err, fs.ErrNotExist))
}

func TestResolveOutside(t *testing.T) {
	is := is.New(t)
	res := resolver.New(t.TempDir())
	_, err := res.Resolve(&resolver.Resolve{Path: "../secret"})
	is.True(err != nil)
	_, err = res.Write(&resolver.Resolve{Path: "a/../../secret"}, []byte("x"))
	is.True(err != nil)
	_, err = res.Resolve(&resolver.Resolve{Path: "/"})
	is.True(err != nil)
}

func TestWrite(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	res := resolver.New(dir)
	file, err := res.Write(&resolver.Resolve{Path: "a/b/input.vue"}, []byte("<template></template>"))
	is.NoErr(err)
	is.Equal(file.Path, "a/b/input.vue")
	code, err := os.ReadFile(filepath.Join(dir, "a", "b", "input.vue"))
	is.NoErr(err)
	is.Equal(string(code), "<template></template>")
	file, err = res.Resolve(&resolver.Resolve{Path: "a/b/input.vue"})
	is.NoErr(err)
	is.Equal(string(file.Code), "<template></template>")
}
