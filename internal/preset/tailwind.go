package preset

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/js"
	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/transform"
)

// scale maps old spacing suffixes to the new ones. New values overlap with
// old ones, so the order matters.
var scale = []struct {
	from *regexp.Regexp
	to   string
}{
	{regexp.MustCompile(`-6$`), "-24"},
	{regexp.MustCompile(`-5$`), "-20"},
	{regexp.MustCompile(`-4$`), "-16"},
	{regexp.MustCompile(`-3$`), "-12"},
	{regexp.MustCompile(`-2$`), "-8"},
	{regexp.MustCompile(`-1$`), "-4"},
	{regexp.MustCompile(`-` + regexp.QuoteMeta("[2.5rem]") + `$`), "-40"},
}

var preserved = regexp.MustCompile(`^(flex|border)`)

func rescale(classes string) string {
	names := strings.Split(classes, " ")
	for i, name := range names {
		if preserved.MatchString(name) {
			continue
		}
		for _, step := range scale {
			name = step.from.ReplaceAllString(name, step.to)
		}
		names[i] = name
	}
	return strings.Join(names, " ")
}

func tailwindTemplate(file transform.FileInfo, root *ast.Root, params transform.Params) (*ast.Root, error) {
	changed, err := updateClasses(root, rescale)
	if err != nil || !changed {
		return nil, err
	}
	return root, nil
}

// tailwindScript rescales the classes in tw`` tagged templates
func tailwindScript(file transform.FileInfo, api *script.File, params transform.Params) (string, error) {
	tokens := api.Tokens()
	var prev js.Token
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if token.IsTrivia() {
			continue
		}
		tagged := prev.Type == js.IdentifierToken && prev.Text == "tw"
		prev = token
		if !tagged {
			continue
		}
		switch token.Type {
		case js.TemplateToken:
			replaceQuasi(api, token, 1, 1)
		case js.TemplateStartToken:
			replaceQuasi(api, token, 1, 2)
			depth := 1
			for i++; i < len(tokens) && depth > 0; i++ {
				switch tokens[i].Type {
				case js.TemplateStartToken:
					depth++
				case js.TemplateMiddle:
					if depth == 1 {
						replaceQuasi(api, tokens[i], 1, 2)
					}
				case js.TemplateEndToken:
					if depth == 1 {
						replaceQuasi(api, tokens[i], 1, 1)
					}
					depth--
				}
			}
			i--
		}
	}
	if !api.Changed() {
		return "", nil
	}
	return api.String()
}

// replaceQuasi rescales the literal text of a template token between its
// delimiters
func replaceQuasi(api *script.File, token js.Token, left, right int) {
	raw := token.Text[left : len(token.Text)-right]
	if value := rescale(raw); value != raw {
		api.Replace(token.Start+left, token.End()-right, value)
	}
}
