// Package transform runs transformations over whole documents. Single-file
// components are split into blocks, each block is handed to the matching
// transformation and the document is only written back out when a block
// changed.
package transform

import (
	"fmt"
	"path/filepath"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/sfc"
	"github.com/livebud/sfcmod/internal/style"
	"github.com/rs/zerolog"
)

// FileInfo is the document being transformed. Block transformations get the
// block content as the source.
type FileInfo struct {
	Path   string
	Source string
}

// Params are forwarded to every block transformation
type Params map[string]interface{}

// ScriptFunc transforms a script. Returning an empty string leaves the script
// as it was.
type ScriptFunc func(file FileInfo, api *script.File, params Params) (string, error)

// TemplateFunc transforms a compiled template. Returning nil leaves the
// template as it was.
type TemplateFunc func(file FileInfo, root *ast.Root, params Params) (*ast.Root, error)

// StyleFunc transforms a stylesheet. It may edit ctx.Root, replace it, or
// return replacement text.
type StyleFunc func(file FileInfo, ctx *style.Context, params Params) (string, error)

// Transformation has an optional transformation per block type
type Transformation struct {
	Script   ScriptFunc
	Template TemplateFunc
	Style    StyleFunc
}

// Normalize accepts a Transformation or a bare script function
func Normalize(module interface{}) (*Transformation, error) {
	switch m := module.(type) {
	case *Transformation:
		if m == nil {
			return nil, fmt.Errorf("transform: transformation is nil")
		}
		return m, nil
	case Transformation:
		return &m, nil
	case ScriptFunc:
		return &Transformation{Script: m}, nil
	case func(FileInfo, *script.File, Params) (string, error):
		return &Transformation{Script: m}, nil
	default:
		return nil, fmt.Errorf("transform: unexpected transformation type %T", module)
	}
}

// Options for the runner
type Options struct {
	// Validate checks that changed scripts and stylesheets still parse
	Validate bool
}

// Runner runs transformations
type Runner struct {
	log     zerolog.Logger
	sfc     *sfc.Parser
	options Options
}

// New runner
func New(log zerolog.Logger, options Options) *Runner {
	return &Runner{log, sfc.New(log), options}
}

var defaultRunner = New(zerolog.Nop(), Options{})

// Run a transformation with the default runner
func Run(file FileInfo, module interface{}, params Params) (string, error) {
	return defaultRunner.Run(file, module, params)
}

// Run a transformation over a document. The document is returned unchanged
// unless a block changed. On error the original source is returned too.
func (r *Runner) Run(file FileInfo, module interface{}, params Params) (string, error) {
	transformation, err := Normalize(module)
	if err != nil {
		return file.Source, err
	}
	if params == nil {
		params = Params{}
	}
	if filepath.Ext(file.Path) != ".vue" {
		return r.runFile(file, transformation, params)
	}
	return r.runComponent(file, transformation, params)
}

// runFile runs over a plain script file
func (r *Runner) runFile(file FileInfo, transformation *Transformation, params Params) (string, error) {
	if transformation.Script == nil {
		return file.Source, fmt.Errorf("transform: %s is not a single file component and the transformation has no script transform", file.Path)
	}
	block := &sfc.Block{
		Type:    "script",
		Content: file.Source,
		Lang:    script.Lang(file.Path, ""),
	}
	changed, err := r.runScript(transformation.Script, block, file.Path, params)
	if err != nil {
		return file.Source, err
	}
	if !changed {
		return file.Source, nil
	}
	return block.Content, nil
}

type step struct {
	kind  string
	block *sfc.Block
}

func (r *Runner) runComponent(file FileInfo, transformation *Transformation, params Params) (string, error) {
	result := r.sfc.Parse(file.Source, sfc.Options{Filename: file.Path})
	if len(result.Errors) > 0 {
		return file.Source, fmt.Errorf("transform: unable to parse %s: %w", file.Path, result.Errors[0])
	}
	descriptor := result.Descriptor
	var steps []step
	if transformation.Script != nil {
		for _, block := range []*sfc.Block{descriptor.ScriptSetup, descriptor.Script} {
			if block != nil && block.Src == "" {
				steps = append(steps, step{"script", block})
			}
		}
	}
	if transformation.Template != nil && descriptor.Template != nil && descriptor.Template.Src == "" {
		steps = append(steps, step{"template", descriptor.Template})
	}
	if transformation.Style != nil {
		for _, block := range descriptor.Styles {
			if block.Src == "" {
				steps = append(steps, step{"style", block})
			}
		}
	}
	if len(steps) == 0 {
		r.log.Debug().Str("path", file.Path).Msg("transform: no blocks to transform")
		return file.Source, nil
	}
	changed := false
	for _, step := range steps {
		var ok bool
		var err error
		switch step.kind {
		case "script":
			ok, err = r.runScript(transformation.Script, step.block, file.Path, params)
		case "template":
			ok, err = r.runTemplate(transformation.Template, step.block, file.Path, params)
		case "style":
			ok, err = r.runStyle(transformation.Style, step.block, file.Path, params)
		}
		if err != nil {
			return file.Source, err
		}
		changed = changed || ok
	}
	if !changed {
		return file.Source, nil
	}
	return sfc.Stringify(descriptor), nil
}

// processResult writes the output into the block when it changed
func (r *Runner) processResult(block *sfc.Block, out string) bool {
	r.log.Debug().Msgf("Done running %s transform", block.Type)
	if out != "" && out != block.Content {
		r.log.Debug().Msgf("Updating descriptor with outcome of %s transform", block.Type)
		block.Content = out
		return true
	}
	r.log.Debug().Msgf("No %s changes", block.Type)
	return false
}
