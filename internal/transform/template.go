package transform

import (
	"fmt"

	"github.com/livebud/sfcmod/internal/compiler"
	"github.com/livebud/sfcmod/internal/sfc"
	"github.com/livebud/sfcmod/internal/template"
)

func (r *Runner) runTemplate(fn TemplateFunc, block *sfc.Block, path string, params Params) (bool, error) {
	r.log.Debug().Msg("Running template transform")
	if block.Lang != "" && block.Lang != "html" {
		r.log.Debug().Str("lang", block.Lang).Msg("Skipping template that isn't html")
		return false, nil
	}
	result, err := compiler.Compile(compiler.Options{
		Source:   block.Content,
		Filename: path,
	})
	if err != nil {
		return false, fmt.Errorf("transform: unable to compile template in %s: %w", path, err)
	}
	if len(result.Errors) > 0 {
		return false, fmt.Errorf("transform: unable to compile template in %s: %w", path, result.Errors[0])
	}
	// The stringified tree differs from the source in whitespace, so changes
	// are measured against the untouched tree
	before, err := template.Stringify(result.AST)
	if err != nil {
		return false, fmt.Errorf("transform: unable to print template in %s: %w", path, err)
	}
	root, err := fn(FileInfo{path, block.Content}, result.AST, params)
	if err != nil {
		return false, fmt.Errorf("transform: template transform failed for %s: %w", path, err)
	}
	if root == nil {
		return r.processResult(block, ""), nil
	}
	after, err := template.Stringify(root)
	if err != nil {
		return false, fmt.Errorf("transform: unable to print template in %s: %w", path, err)
	}
	if after == before {
		return r.processResult(block, ""), nil
	}
	return r.processResult(block, after), nil
}
