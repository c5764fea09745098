// Package preset contains the built-in transformations
package preset

import (
	"fmt"

	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/transform"
)

type preset struct {
	name           string
	description    string
	transformation *transform.Transformation
}

var presets = []preset{
	{"add-use-strict", "Adds a 'use strict' directive to scripts", &transform.Transformation{Script: addUseStrict}},
	{"rename-imports", "Rewrites import paths with the from and to params, or splits @orgname/old-package imports", &transform.Transformation{Script: renameImports}},
	{"root-heading", "Shifts h1-h6 so the top heading is the rootHeading param", &transform.Transformation{Template: rootHeading}},
	{"rename-class", "Renames a static class from the from param to the to param", &transform.Transformation{Template: renameClass}},
	{"tailwind-scale", "Moves Tailwind spacing classes to the new scale in templates and tw`` literals", &transform.Transformation{Script: tailwindScript, Template: tailwindTemplate}},
	{"identity", "Leaves every block as it is", &transform.Transformation{Script: identityScript, Template: identityTemplate, Style: identityStyle}},
	{"css-prefix-classes", "Prefixes class selectors with the prefix param, app- by default", &transform.Transformation{Style: prefixClasses}},
	{"css-color-variables", "Replaces known colors with custom properties declared in :root", &transform.Transformation{Style: colorVariables}},
	{"css-vue-deep", "Rewrites :deep() and :slotted() to ::v-deep and ::v-slotted", &transform.Transformation{Style: vueDeep}},
}

// Register the built-in transformations
func Register(r *registry.Registry) error {
	for _, p := range presets {
		if err := r.Register(p.name, p.description, p.transformation); err != nil {
			return fmt.Errorf("preset: %w", err)
		}
	}
	return nil
}

// toInt reads whole numbers decoded from yaml or json
func toInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
