package preset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/template"
	"github.com/livebud/sfcmod/internal/transform"
)

var headingTag = regexp.MustCompile(`^h[1-6]$`)

func isHeading(node ast.Node) bool {
	el, ok := node.(*ast.Element)
	return ok && headingTag.MatchString(el.Tag)
}

func rootHeading(file transform.FileInfo, root *ast.Root, params transform.Params) (*ast.Root, error) {
	value, ok := params["rootHeading"]
	if !ok {
		return nil, nil
	}
	level, ok := toInt(value)
	if !ok || level < 1 || level > 4 {
		return nil, errors.New("Invalid option --root-heading: value must be a number between 1 and 4.")
	}
	headings := template.ExploreAst(root, isHeading)
	top := 6
	for _, heading := range headings {
		if n := headingLevel(heading.(*ast.Element)); n < top {
			top = n
		}
	}
	shift := level - top
	if len(headings) == 0 || shift == 0 {
		return nil, nil
	}
	for _, heading := range headings {
		el := heading.(*ast.Element)
		n := headingLevel(el) + shift
		if n > 6 {
			n = 6
		}
		el.Tag = fmt.Sprintf("h%d", n)
	}
	return root, nil
}

func headingLevel(el *ast.Element) int {
	return int(el.Tag[1] - '0')
}

// updateClasses rewrites every static class attribute in the tree
func updateClasses(root *ast.Root, fn func(class string) string) (bool, error) {
	changed := false
	attrs := template.FindAstAttributes(root, func(attr *ast.Attribute) bool {
		return attr.Name == "class" && attr.Value != nil
	})
	for _, attr := range attrs {
		value := fn(attr.Value.Content)
		if value == attr.Value.Content {
			continue
		}
		changed = true
		err := template.UpdateAttribute(attr, func(attr *ast.Attribute) template.AttributeChanges {
			return template.AttributeChanges{Value: &value}
		})
		if err != nil {
			return false, err
		}
	}
	return changed, nil
}

func renameClass(file transform.FileInfo, root *ast.Root, params transform.Params) (*ast.Root, error) {
	from, _ := params["from"].(string)
	to, _ := params["to"].(string)
	if from == "" || to == "" {
		return nil, fmt.Errorf("rename-class: the from and to params are required")
	}
	changed, err := updateClasses(root, func(class string) string {
		classes := strings.Split(class, " ")
		for i, name := range classes {
			if name == from {
				classes[i] = to
			}
		}
		return strings.Join(classes, " ")
	})
	if err != nil || !changed {
		return nil, err
	}
	return root, nil
}

func identityTemplate(file transform.FileInfo, root *ast.Root, params transform.Params) (*ast.Root, error) {
	return nil, nil
}
