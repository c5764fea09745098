package transform

import (
	"fmt"

	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/sfc"
)

func (r *Runner) runScript(fn ScriptFunc, block *sfc.Block, path string, params Params) (bool, error) {
	r.log.Debug().Msg("Running script transform")
	lang := script.Lang(path, block.Lang)
	file, err := script.Parse(path, block.Content, lang)
	if err != nil {
		return false, fmt.Errorf("transform: %w", err)
	}
	out, err := fn(FileInfo{path, block.Content}, file, params)
	if err != nil {
		return false, fmt.Errorf("transform: script transform failed for %s: %w", path, err)
	}
	if r.options.Validate && out != "" && out != block.Content {
		if err := script.Validate(path, out, lang); err != nil {
			return false, fmt.Errorf("transform: script transform produced invalid code: %w", err)
		}
	}
	return r.processResult(block, out), nil
}
