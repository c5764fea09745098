package sfc

import (
	"sort"
	"strings"
)

// Stringify writes the descriptor back out as a document. The text between
// blocks is copied from the original source. Blocks removed from the descriptor are
// cut out and new blocks are written at the end.
func Stringify(d *Descriptor) string {
	if d.Source == "" {
		return stringifyBlocks(d.Blocks())
	}
	var placed, added []*Block
	for _, block := range d.Blocks() {
		if block.raw == nil {
			added = append(added, block)
			continue
		}
		placed = append(placed, block)
	}
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].raw.start < placed[j].raw.start
	})
	removed := removedSpans(d.spans, placed)
	out := new(strings.Builder)
	cursor := 0
	for _, block := range placed {
		out.WriteString(cutSpans(d.Source, cursor, block.raw.start, removed))
		writeBlock(out, block)
		cursor = block.raw.end
	}
	out.WriteString(cutSpans(d.Source, cursor, len(d.Source), removed))
	for _, block := range added {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteString("\n")
		}
		out.WriteString(openTag(block.Type, block.Attrs))
		out.WriteString(block.Content)
		out.WriteString(closeTag(block.Type))
	}
	return out.String()
}

// writeBlock keeps the original tags of untouched blocks. A touched block
// gets a fresh open tag with sorted attributes.
func writeBlock(out *strings.Builder, block *Block) {
	raw := block.raw
	content := strings.TrimPrefix(block.Content, raw.pad)
	if content == raw.content && sameAttrs(block.Attrs, raw.attrs) {
		out.WriteString(raw.openTag)
		out.WriteString(content)
		out.WriteString(raw.closeTag)
		return
	}
	out.WriteString(openTag(block.Type, block.Attrs))
	out.WriteString(content)
	if raw.selfClosing {
		out.WriteString("</" + block.Type + ">")
		return
	}
	out.WriteString(raw.closeTag)
}

// removedSpans are the spans of parsed blocks that are no longer in the
// descriptor
func removedSpans(spans []span, placed []*Block) (removed []span) {
	kept := make(map[span]bool, len(placed))
	for _, block := range placed {
		kept[block.raw.span] = true
	}
	for _, span := range spans {
		if !kept[span] {
			removed = append(removed, span)
		}
	}
	return removed
}

// cutSpans returns source[from:to] without the removed spans. The newline
// that followed a removed block goes with it.
func cutSpans(source string, from, to int, removed []span) string {
	var out strings.Builder
	for _, span := range removed {
		if span.start < from || span.end > to {
			continue
		}
		out.WriteString(source[from:span.start])
		from = span.end
		if from < to && source[from] == '\n' {
			from++
		}
	}
	out.WriteString(source[from:to])
	return out.String()
}

func sameAttrs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, value := range a {
		if other, ok := b[name]; !ok || other != value {
			return false
		}
	}
	return true
}

// openTag with the attributes sorted by name
func openTag(kind string, attrs map[string]string) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	var out strings.Builder
	out.WriteString("<" + kind)
	for _, name := range names {
		out.WriteString(" " + name)
		value := attrs[name]
		if value == "" {
			continue
		}
		if strings.Contains(value, `"`) {
			out.WriteString("='" + value + "'")
			continue
		}
		out.WriteString(`="` + value + `"`)
	}
	out.WriteString(">")
	return out.String()
}

func closeTag(kind string) string {
	return "</" + kind + ">\n"
}

// stringifyBlocks rebuilds a document without an original source to copy
// from. The newlines between blocks are derived from the block offsets.
func stringifyBlocks(blocks []*Block) string {
	sorted := append([]*Block{}, blocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Loc.Start.Offset < sorted[j].Loc.Start.Offset
	})
	var out strings.Builder
	prevEnd := 0
	for _, block := range sorted {
		open := openTag(block.Type, block.Attrs)
		closing := closeTag(block.Type)
		startOfOpenTag := block.Loc.Start.Offset - len(open)
		if newlines := startOfOpenTag - prevEnd; newlines > 0 {
			out.WriteString(strings.Repeat("\n", newlines))
		}
		out.WriteString(open)
		out.WriteString(block.Content)
		out.WriteString(closing)
		prevEnd = block.Loc.End.Offset + len(closing)
	}
	return out.String()
}
