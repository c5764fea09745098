package preset

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/style"
	"github.com/livebud/sfcmod/internal/transform"
)

var className = regexp.MustCompile(`\.([a-zA-Z][\w-]*)`)

func prefixClasses(file transform.FileInfo, ctx *style.Context, params transform.Params) (string, error) {
	prefix, _ := params["prefix"].(string)
	if prefix == "" {
		prefix = "app-"
	}
	skip := strings.Replace(prefix, "-", "", 1)
	ctx.Root.WalkRules("", func(rule *style.Rule) {
		rule.Selector = className.ReplaceAllStringFunc(rule.Selector, func(match string) string {
			if strings.HasPrefix(match[1:], skip) {
				return match
			}
			return "." + prefix + match[1:]
		})
	})
	return "", nil
}

// colors to the custom property that replaces them, in declaration order
var colors = []struct{ value, variable string }{
	{"#333333", "--color-text-primary"},
	{"#666666", "--color-text-secondary"},
	{"#007bff", "--color-primary"},
	{"#0056b3", "--color-primary-dark"},
	{"#ffffff", "--color-background"},
	{"#e0e0e0", "--color-border"},
	{"#cccccc", "--color-disabled"},
	{"white", "--color-background"},
	{"rgba(0, 0, 0, 0.1)", "--shadow-light"},
}

func colorVariables(file transform.FileInfo, ctx *style.Context, params transform.Params) (string, error) {
	var root *style.Rule
	ctx.Root.WalkRules(":root", func(rule *style.Rule) {
		root = rule
	})
	if root == nil {
		root = style.NewRule(":root")
		for _, color := range colors {
			root.Append(style.NewDecl(color.variable, color.value))
		}
		ctx.Root.Prepend(root)
	}
	ctx.Root.WalkDecls("", func(decl *style.Decl) {
		if rule, ok := decl.Parent().(*style.Rule); ok && rule.Selector == ":root" {
			return
		}
		for _, color := range colors {
			if decl.Value == color.value {
				decl.Value = "var(" + color.variable + ")"
			}
		}
	})
	return "", nil
}

var (
	deep        = regexp.MustCompile(`:deep\(([^)]+)\)`)
	slotted     = regexp.MustCompile(`:slotted\(([^)]+)\)`)
	deepCall    = regexp.MustCompile(`::v-deep\s*\(`)
	closingCall = regexp.MustCompile(`\)$`)
)

func vueDeep(file transform.FileInfo, ctx *style.Context, params transform.Params) (string, error) {
	ctx.Root.WalkRules("", func(rule *style.Rule) {
		selector := deep.ReplaceAllString(rule.Selector, "::v-deep $1")
		selector = slotted.ReplaceAllString(selector, "::v-slotted $1")
		selector = deepCall.ReplaceAllString(selector, "::v-deep ")
		rule.Selector = closingCall.ReplaceAllString(selector, "")
	})
	return "", nil
}

func identityStyle(file transform.FileInfo, ctx *style.Context, params transform.Params) (string, error) {
	return "", nil
}
