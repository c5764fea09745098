package sfc

import (
	"regexp"
	"unicode"

	"github.com/livebud/sfcmod/internal/sourcemap"
)

var (
	splitLines = regexp.MustCompile(`\r?\n`)
	emptyLine  = regexp.MustCompile(`^(?://)?\s*$`)
)

func generateSourceMaps(d *Descriptor, options Options) {
	blocks := []*Block{d.Script, d.ScriptSetup}
	if d.Template != nil && d.Template.Lang != "" && d.Template.Lang != "html" {
		blocks = append(blocks, d.Template)
	}
	blocks = append(blocks, d.Styles...)
	for _, block := range blocks {
		if block == nil || block.Src != "" {
			continue
		}
		lineOffset := 0
		if options.Pad == "" || block.Type == "template" {
			lineOffset = block.Loc.Start.Line - 1
		}
		block.Map = blockSourceMap(options.Filename, d.Source, block.Content, options.SourceRoot, lineOffset)
	}
}

// blockSourceMap maps every non-whitespace character of the generated
// content back to the same column of the original line
func blockSourceMap(filename, source, generated, sourceRoot string, lineOffset int) *sourcemap.Map {
	gen := sourcemap.New(filename, sourceRoot)
	gen.SetSourceContent(filename, source)
	for index, line := range splitLines.Split(generated, -1) {
		if emptyLine.MatchString(line) {
			continue
		}
		for column, r := range line {
			if unicode.IsSpace(r) {
				continue
			}
			// Positions are always valid here
			_ = gen.AddMapping(sourcemap.Mapping{
				GeneratedLine:   index + 1,
				GeneratedColumn: column,
				Source:          filename,
				OriginalLine:    index + 1 + lineOffset,
				OriginalColumn:  column,
			})
		}
	}
	return gen.Map()
}
