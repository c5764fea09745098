package sfcmod_test

import (
	"strings"
	"testing"

	"github.com/livebud/sfcmod"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
)

func TestRunScript(t *testing.T) {
	is := is.New(t)
	out, err := sfcmod.Run(sfcmod.FileInfo{Path: "a.js", Source: "foo()\n"}, func(file sfcmod.FileInfo, api *sfcmod.Script, params sfcmod.Params) (string, error) {
		api.InsertBefore(0, "// "+params["banner"].(string)+"\n")
		return api.String()
	}, sfcmod.Params{"banner": "generated"})
	is.NoErr(err)
	diff.TestString(t, out, "// generated\nfoo()\n")
}

func TestRegisterAndLoad(t *testing.T) {
	is := is.New(t)
	err := sfcmod.Register("uppercase-rules", "Uppercases selectors", &sfcmod.Transformation{
		Style: func(file sfcmod.FileInfo, ctx *sfcmod.Stylesheet, params sfcmod.Params) (string, error) {
			ctx.Root.WalkRules("", func(rule *sfcmod.Rule) {
				rule.Selector = strings.ToUpper(rule.Selector)
			})
			return "", nil
		},
	})
	is.NoErr(err)
	is.True(sfcmod.Register("uppercase-rules", "", sfcmod.ScriptFunc(nil)) != nil)
	transformation, err := sfcmod.Load("transforms/uppercase-rules.go")
	is.NoErr(err)
	out, err := sfcmod.Run(sfcmod.FileInfo{Path: "a.vue", Source: "<style>\n.a { color: red }\n</style>\n"}, transformation, nil)
	is.NoErr(err)
	diff.TestString(t, out, "<style>\n.A { color: red }\n</style>\n")
	_, err = sfcmod.Load("missing")
	is.True(err != nil)
	names := []string{}
	for _, entry := range sfcmod.List() {
		names = append(names, entry.Name)
	}
	is.True(strings.Contains(strings.Join(names, ","), "add-use-strict"))
	is.True(strings.Contains(strings.Join(names, ","), "uppercase-rules"))
}

func TestParseStringify(t *testing.T) {
	is := is.New(t)
	source := "<template>\n  <p v-bind:title=\"a\" :id=\"b\">x</p>\n</template>\n\n<custom>raw</custom>\n"
	descriptor, errs := sfcmod.Parse("a.vue", source)
	is.Equal(len(errs), 0)
	is.Equal(sfcmod.Stringify(descriptor), source)
	_, errs = sfcmod.Parse("a.vue", "<template></template><template></template>")
	is.True(len(errs) > 0)
}
