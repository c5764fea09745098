package sfc

import (
	"strings"
)

// padContent returns the prefix that keeps the block content at its
// original position in the document
func padContent(source string, block *Block, pad string) string {
	before := source[:block.Loc.Start.Offset]
	if pad == "space" {
		return strings.Map(func(r rune) rune {
			switch r {
			case '\n', '\r', '\u2028', '\u2029':
				return r
			}
			return ' '
		}, before)
	}
	padChar := "\n"
	if block.Type == "script" && block.Lang == "" {
		padChar = "//\n"
	}
	return strings.Repeat(padChar, strings.Count(before, "\n"))
}
