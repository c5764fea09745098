// Package sfc splits single-file component documents into blocks and
// stitches them back together.
package sfc

import (
	"sort"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/lexer"
	"github.com/livebud/sfcmod/internal/parser"
	"github.com/livebud/sfcmod/internal/sourcemap"
	"github.com/rs/zerolog"
)

// Options for parsing a document
type Options struct {
	Filename   string // defaults to anonymous.vue
	SourceMap  bool
	SourceRoot string
	// Pad is "", "line" or "space"
	Pad string
	// IgnoreEmpty skips blocks that only contain whitespace
	IgnoreEmpty bool
}

const defaultFilename = "anonymous.vue"

// Result of parsing a document. Errors never stop the parse.
type Result struct {
	Descriptor *Descriptor `json:"descriptor"`
	Errors     []error     `json:"errors"`
}

// Descriptor of a single-file component
type Descriptor struct {
	Filename     string   `json:"filename"`
	Source       string   `json:"source"`
	Template     *Block   `json:"template"`
	Script       *Block   `json:"script"`
	ScriptSetup  *Block   `json:"scriptSetup"`
	Styles       []*Block `json:"styles"`
	CustomBlocks []*Block `json:"customBlocks"`

	// spans of the blocks found while parsing
	spans []span
}

// Blocks returns the present blocks in processing order
func (d *Descriptor) Blocks() (blocks []*Block) {
	for _, block := range []*Block{d.Template, d.Script, d.ScriptSetup} {
		if block != nil {
			blocks = append(blocks, block)
		}
	}
	blocks = append(blocks, d.Styles...)
	blocks = append(blocks, d.CustomBlocks...)
	return blocks
}

// String is shorthand for Stringify
func (d *Descriptor) String() string {
	return Stringify(d)
}

// Block is one top-level element of the document. Attrs is the source of
// truth when the block is written back out. An empty attribute value is
// written as a bare attribute.
type Block struct {
	Type    string            `json:"type"`
	Content string            `json:"content"`
	Attrs   map[string]string `json:"attrs"`
	Lang    string            `json:"lang,omitempty"`
	Src     string            `json:"src,omitempty"`
	Setup   bool              `json:"setup,omitempty"`
	Scoped  bool              `json:"scoped,omitempty"`
	Module  string            `json:"module,omitempty"`
	// Loc of the content within the original document
	Loc ast.Loc        `json:"loc"`
	Map *sourcemap.Map `json:"map,omitempty"`

	raw *raw
}

// raw is what the block looked like in the original document
type raw struct {
	span
	openTag     string
	content     string
	closeTag    string
	pad         string
	attrs       map[string]string
	selfClosing bool
}

// span of a whole element in the original document
type span struct {
	start, end int
}

// NewBlock creates a block that didn't exist in the source. New blocks are
// written after the existing ones.
func NewBlock(kind, content string, attrs map[string]string) *Block {
	block := &Block{
		Type:    kind,
		Content: content,
		Attrs:   map[string]string{},
	}
	for name, value := range attrs {
		block.SetAttr(name, value)
	}
	return block
}

// SetAttr sets an attribute and keeps the typed fields in sync
func (b *Block) SetAttr(name, value string) {
	if b.Attrs == nil {
		b.Attrs = map[string]string{}
	}
	b.Attrs[name] = value
	b.syncAttr(name, value, true)
}

// RemoveAttr removes an attribute and keeps the typed fields in sync
func (b *Block) RemoveAttr(name string) {
	delete(b.Attrs, name)
	b.syncAttr(name, "", false)
}

func (b *Block) syncAttr(name, value string, present bool) {
	switch {
	case name == "lang":
		b.Lang = value
	case name == "src":
		b.Src = value
	case b.Type == "style" && name == "scoped":
		b.Scoped = present
	case b.Type == "style" && name == "module":
		b.Module = value
		if present && value == "" {
			b.Module = "true"
		}
	case b.Type == "script" && name == "setup":
		b.Setup = present
	}
}

func (b *Block) clone() *Block {
	out := *b
	out.Attrs = make(map[string]string, len(b.Attrs))
	for name, value := range b.Attrs {
		out.Attrs[name] = value
	}
	return &out
}

func (d *Descriptor) clone() *Descriptor {
	out := *d
	cloneBlock := func(b *Block) *Block {
		if b == nil {
			return nil
		}
		return b.clone()
	}
	out.Template = cloneBlock(d.Template)
	out.Script = cloneBlock(d.Script)
	out.ScriptSetup = cloneBlock(d.ScriptSetup)
	out.Styles = make([]*Block, len(d.Styles))
	for i, style := range d.Styles {
		out.Styles[i] = style.clone()
	}
	out.CustomBlocks = make([]*Block, len(d.CustomBlocks))
	for i, custom := range d.CustomBlocks {
		out.CustomBlocks[i] = custom.clone()
	}
	return &out
}

var defaultParser = New(zerolog.Nop())

// Parse a document with the shared parser
func Parse(source string, options Options) *Result {
	return defaultParser.Parse(source, options)
}

// New parser with its own cache
func New(log zerolog.Logger) *Parser {
	return &Parser{log, newCache(cacheEntries, cacheSize)}
}

// Parser splits documents into blocks and caches the results
type Parser struct {
	log   zerolog.Logger
	cache *cache
}

// Parse a document into its blocks. Callers get their own copy of the
// descriptor and may mutate it.
func (p *Parser) Parse(source string, options Options) *Result {
	if options.Filename == "" {
		options.Filename = defaultFilename
	}
	key := cacheKey(source, options)
	if result, ok := p.cache.Get(key); ok {
		p.log.Debug().Str("filename", options.Filename).Msg("sfc: cache hit")
		return result
	}
	result := parse(source, options)
	p.cache.Add(key, result)
	return result
}

func parse(source string, options Options) *Result {
	descriptor := &Descriptor{
		Filename:     options.Filename,
		Source:       source,
		Styles:       []*Block{},
		CustomBlocks: []*Block{},
	}
	result := &Result{
		Descriptor: descriptor,
		Errors:     []error{},
	}
	root, err := parser.NewDocument(options.Filename, source).Parse()
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}
	for _, child := range root.Children {
		node, ok := child.(*ast.Element)
		if !ok {
			continue
		}
		if node.Tag != "template" && !hasSrc(node) && isEmpty(node, options.IgnoreEmpty) {
			continue
		}
		switch node.Tag {
		case "template":
			if descriptor.Template != nil {
				result.Errors = append(result.Errors, duplicateBlockError(node, false))
				continue
			}
			descriptor.Template = createBlock(node, source, "")
		case "script":
			block := createBlock(node, source, options.Pad)
			if block.Setup && descriptor.ScriptSetup == nil {
				descriptor.ScriptSetup = block
				continue
			}
			if !block.Setup && descriptor.Script == nil {
				descriptor.Script = block
				continue
			}
			result.Errors = append(result.Errors, duplicateBlockError(node, block.Setup))
		case "style":
			block := createBlock(node, source, options.Pad)
			if _, ok := block.Attrs["vars"]; ok {
				result.Errors = append(result.Errors, &SyntaxError{
					Message: "<style vars> has been replaced by a new proposal: https://github.com/vuejs/rfcs/pull/231",
					Loc:     node.Loc,
				})
			}
			descriptor.Styles = append(descriptor.Styles, block)
		default:
			descriptor.CustomBlocks = append(descriptor.CustomBlocks, createBlock(node, source, options.Pad))
		}
	}
	if setup := descriptor.ScriptSetup; setup != nil {
		if setup.Src != "" {
			result.Errors = append(result.Errors, &SyntaxError{
				Message: `<script setup> cannot use the "src" attribute because its syntax will be ambiguous outside of the component.`,
				Loc:     setup.Loc,
			})
			descriptor.ScriptSetup = nil
		}
		if script := descriptor.Script; script != nil && script.Src != "" {
			result.Errors = append(result.Errors, &SyntaxError{
				Message: `<script> cannot use the "src" attribute when <script setup> is also present because they must be processed together.`,
				Loc:     script.Loc,
			})
			descriptor.Script = nil
		}
	}
	for _, block := range descriptor.Blocks() {
		descriptor.spans = append(descriptor.spans, block.raw.span)
	}
	sort.Slice(descriptor.spans, func(i, j int) bool {
		return descriptor.spans[i].start < descriptor.spans[j].start
	})
	if options.SourceMap {
		generateSourceMaps(descriptor, options)
	}
	return result
}

func hasSrc(node *ast.Element) bool {
	for _, prop := range node.Props {
		if attr, ok := prop.(*ast.Attribute); ok && attr.Name == "src" {
			return true
		}
	}
	return false
}

func isEmpty(node *ast.Element, ignoreWhitespace bool) bool {
	if len(node.Children) == 0 {
		return true
	}
	if !ignoreWhitespace {
		return false
	}
	for _, child := range node.Children {
		text, ok := child.(*ast.Text)
		if !ok || strings.TrimSpace(text.Content) != "" {
			return false
		}
	}
	return true
}

func createBlock(node *ast.Element, source, pad string) *Block {
	block := &Block{
		Type:  node.Tag,
		Attrs: map[string]string{},
	}
	for _, prop := range node.Props {
		switch prop := prop.(type) {
		case *ast.Attribute:
			value := ""
			if prop.Value != nil {
				value = prop.Value.Content
			}
			block.SetAttr(prop.Name, value)
		case *ast.Directive:
			value := ""
			if exp, ok := prop.Exp.(*ast.SimpleExpression); ok {
				value = exp.Content
			}
			block.Attrs[prop.RawName] = value
		}
	}
	r := &raw{
		span:        span{node.Loc.Start.Offset, node.Loc.End.Offset},
		attrs:       make(map[string]string, len(block.Attrs)),
		selfClosing: node.SelfClosing || lexer.IsVoid(node.Tag),
	}
	for name, value := range block.Attrs {
		r.attrs[name] = value
	}
	element := source[r.start:r.end]
	var contentStart, contentEnd int
	switch {
	case len(node.Children) > 0:
		contentStart = node.Children[0].Location().Start.Offset
		contentEnd = node.Children[len(node.Children)-1].Location().End.Offset
	case r.selfClosing:
		contentStart, contentEnd = r.end, r.end
	default:
		contentStart = r.start + strings.LastIndex(element, "</")
		contentEnd = contentStart
	}
	r.openTag = source[r.start:contentStart]
	r.closeTag = source[contentEnd:r.end]
	block.Content = source[contentStart:contentEnd]
	r.content = block.Content
	block.Loc = ast.Loc{
		Start:  position(source, contentStart),
		End:    position(source, contentEnd),
		Source: block.Content,
	}
	if pad != "" {
		r.pad = padContent(source, block, pad)
		block.Content = r.pad + block.Content
	}
	block.raw = r
	return block
}

// position of an offset with 1-based lines and columns
func position(source string, offset int) ast.Position {
	before := source[:offset]
	line := strings.Count(before, "\n") + 1
	column := offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return ast.Position{Offset: offset, Line: line, Column: column}
}
