// Package sfcmod runs codemods over Vue single-file components. A
// transformation has an optional function per block type: scripts are edited
// through byte ranges, templates through their compiled tree and stylesheets
// through a postcss-like tree. Only the blocks that changed are written back.
package sfcmod

import (
	"context"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/cli"
	"github.com/livebud/sfcmod/internal/preset"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/sfc"
	"github.com/livebud/sfcmod/internal/style"
	"github.com/livebud/sfcmod/internal/template"
	"github.com/livebud/sfcmod/internal/transform"
	"github.com/rs/zerolog"
)

type (
	FileInfo       = transform.FileInfo
	Params         = transform.Params
	Transformation = transform.Transformation
	ScriptFunc     = transform.ScriptFunc
	TemplateFunc   = transform.TemplateFunc
	StyleFunc      = transform.StyleFunc

	// Script is the api handed to script transformations
	Script = script.File
	// Template is the compiled template tree
	Template = ast.Root
	// Stylesheet is handed to style transformations
	Stylesheet = style.Context
	StyleRoot  = style.Root
	Rule       = style.Rule
	AtRule     = style.AtRule
	Decl       = style.Decl
	Comment    = style.Comment

	Descriptor = sfc.Descriptor
	Block      = sfc.Block
	Entry      = registry.Entry
)

var defaultRegistry = newRegistry()

func newRegistry() *registry.Registry {
	r := registry.New(zerolog.Nop())
	if err := preset.Register(r); err != nil {
		panic(err)
	}
	return r
}

// Run a transformation over a file. The module is a Transformation or a bare
// script function. On error the original source is returned too.
func Run(file FileInfo, module interface{}, params Params) (string, error) {
	return transform.Run(file, module, params)
}

// Register a transformation so the command line and Load can find it
func Register(name, description string, module interface{}) error {
	return defaultRegistry.Register(name, description, module)
}

// Load a registered transformation by name or by the path of its module
func Load(nameOrPath string) (*Transformation, error) {
	entry, err := defaultRegistry.Load(nameOrPath)
	if err != nil {
		return nil, err
	}
	return entry.Transformation, nil
}

// List the registered transformations
func List() []*Entry {
	return defaultRegistry.List()
}

// Parse a single-file component into its blocks
func Parse(path, source string) (*Descriptor, []error) {
	result := sfc.Parse(source, sfc.Options{Filename: path})
	return result.Descriptor, result.Errors
}

// Stringify a descriptor back into a single-file component
func Stringify(descriptor *Descriptor) string {
	return sfc.Stringify(descriptor)
}

// StringifyTemplate prints a compiled template tree back to source
func StringifyTemplate(root *Template) (string, error) {
	return template.Stringify(root)
}

// Main runs the command line with the registered transformations. Programs
// that register their own transformations call it from main.
func Main(ctx context.Context, args ...string) error {
	c := cli.Default()
	c.Registry = defaultRegistry
	return c.Parse(ctx, args...)
}
