// Package sourcemap generates version 3 source maps.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Map is a version 3 source map
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// String encodes the map as JSON
func (m *Map) String() string {
	out, err := json.Marshal(m)
	if err != nil {
		// Only strings and ints, marshaling can't fail
		panic(err)
	}
	return string(out)
}

// Mapping from a generated position to an original position. Lines start at
// 1 and columns start at 0.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	Source          string
	OriginalLine    int
	OriginalColumn  int
}

// Generator collects mappings and builds a map from them
type Generator struct {
	file     string
	root     string
	sources  []string
	index    map[string]int
	contents map[string]string
	mappings []Mapping
}

// New generator. Backslashes in paths are turned into slashes.
func New(file, sourceRoot string) *Generator {
	return &Generator{
		file:     strings.ReplaceAll(file, `\`, "/"),
		root:     strings.ReplaceAll(sourceRoot, `\`, "/"),
		index:    map[string]int{},
		contents: map[string]string{},
	}
}

func (g *Generator) source(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	g.index[name] = len(g.sources)
	g.sources = append(g.sources, name)
	return len(g.sources) - 1
}

// SetSourceContent embeds the content of a source in the map
func (g *Generator) SetSourceContent(source, content string) {
	g.source(source)
	g.contents[source] = content
}

// AddMapping adds a mapping. Positions must be valid.
func (g *Generator) AddMapping(m Mapping) error {
	if m.GeneratedLine < 1 || m.OriginalLine < 1 || m.GeneratedColumn < 0 || m.OriginalColumn < 0 {
		return fmt.Errorf("sourcemap: invalid mapping %+v", m)
	}
	g.source(m.Source)
	g.mappings = append(g.mappings, m)
	return nil
}

// Map builds the source map
func (g *Generator) Map() *Map {
	m := &Map{
		Version:    3,
		File:       g.file,
		SourceRoot: g.root,
		Sources:    append([]string{}, g.sources...),
		Names:      []string{},
		Mappings:   g.encode(),
	}
	if len(g.contents) > 0 {
		m.SourcesContent = make([]string, len(g.sources))
		for i, source := range g.sources {
			m.SourcesContent[i] = g.contents[source]
		}
	}
	return m
}

func (g *Generator) encode() string {
	mappings := append([]Mapping{}, g.mappings...)
	sort.SliceStable(mappings, func(i, j int) bool {
		if mappings[i].GeneratedLine != mappings[j].GeneratedLine {
			return mappings[i].GeneratedLine < mappings[j].GeneratedLine
		}
		return mappings[i].GeneratedColumn < mappings[j].GeneratedColumn
	})
	var out []byte
	line := 1
	prevColumn, prevSource, prevLine, prevOriginalColumn := 0, 0, 0, 0
	for i, m := range mappings {
		if m.GeneratedLine != line {
			for line < m.GeneratedLine {
				out = append(out, ';')
				line++
			}
			prevColumn = 0
		} else if i > 0 {
			out = append(out, ',')
		}
		source := g.index[m.Source]
		out = appendVLQ(out, m.GeneratedColumn-prevColumn)
		out = appendVLQ(out, source-prevSource)
		out = appendVLQ(out, m.OriginalLine-1-prevLine)
		out = appendVLQ(out, m.OriginalColumn-prevOriginalColumn)
		prevColumn = m.GeneratedColumn
		prevSource = source
		prevLine = m.OriginalLine - 1
		prevOriginalColumn = m.OriginalColumn
	}
	return string(out)
}
