package transform

import (
	"fmt"

	"github.com/livebud/sfcmod/internal/sfc"
	"github.com/livebud/sfcmod/internal/style"
)

func (r *Runner) runStyle(fn StyleFunc, block *sfc.Block, path string, params Params) (bool, error) {
	r.log.Debug().Msg("Running style transform")
	lang := style.Lang(block.Lang)
	root, err := style.Parse(path, block.Content, lang)
	if err != nil {
		return false, fmt.Errorf("transform: %w", err)
	}
	ctx := &style.Context{
		Root: root,
		Lang: lang,
		Path: path,
	}
	out, err := fn(FileInfo{path, block.Content}, ctx, params)
	if err != nil {
		return false, fmt.Errorf("transform: style transform failed for %s: %w", path, err)
	}
	if out == "" && ctx.Root != nil {
		out = ctx.Root.String()
	}
	if r.options.Validate && out != "" && out != block.Content {
		if err := style.Validate(path, out, lang); err != nil {
			return false, fmt.Errorf("transform: style transform produced invalid css: %w", err)
		}
	}
	return r.processResult(block, out), nil
}
