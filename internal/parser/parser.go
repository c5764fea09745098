package parser

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/lexer"
	"github.com/livebud/sfcmod/internal/token"
)

// Parse a template into a tree
func Parse(path, input string) (*ast.Root, error) {
	return New(path, input).Parse()
}

// Print the template tree for debugging
func Print(path, input string) string {
	root, err := Parse(path, input)
	if err != nil {
		return err.Error()
	}
	return root.String()
}

func New(path, input string) *Parser {
	return &Parser{
		path:  path,
		input: input,
		l:     lexer.New(input),
		lines: lineStarts(input),
	}
}

// NewDocument parses a single-file component document. Top-level elements
// other than <template> hold their contents as a single text child.
func NewDocument(path, input string) *Parser {
	return &Parser{
		path:  path,
		input: input,
		l:     lexer.NewDocument(input),
		lines: lineStarts(input),
	}
}

type Parser struct {
	path   string
	input  string
	l      *lexer.Lexer
	lines  []int
	inPre  bool
	errors []error
}

// Errors that didn't stop the parse
func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) Parse() (*ast.Root, error) {
	root := &ast.Root{
		Loc: p.loc(0, len(p.input)),
	}
	for !p.Accept(token.EOF) {
		if p.Is(token.LessThanSlash) {
			return nil, p.unexpected("root")
		}
		child, err := p.parseChild()
		if err != nil {
			return nil, err
		}
		root.Children = p.appendChild(root.Children, child)
	}
	return root, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parser: %s: %s", p.path, fmt.Sprintf(format, args...))
}

func (p *Parser) unexpected(prefix string) error {
	tok := p.l.Peak(1)
	if tok.Type == token.Error {
		return p.errorf("%s (%d:%d)", tok.Text, tok.Line, p.position(tok.Start).Column)
	}
	return p.errorf("%s unexpected token %s (%d:%d)", prefix, tok.String(), tok.Line, p.position(tok.Start).Column)
}

func (p *Parser) parseChild() (ast.Child, error) {
	switch {
	case p.Accept(token.Text), p.Accept(token.RawText), p.Accept(token.Doctype):
		return p.parseText(), nil
	case p.Accept(token.Comment):
		return p.parseComment(), nil
	case p.Accept(token.OpenMustache):
		return p.parseInterpolation()
	case p.Accept(token.LessThan):
		return p.parseElement()
	default:
		return nil, p.unexpected("child")
	}
}

// appendChild merges adjacent text which happens inside v-pre where
// interpolations are left as text
func (p *Parser) appendChild(children []ast.Child, child ast.Child) []ast.Child {
	text, ok := child.(*ast.Text)
	if !ok || len(children) == 0 {
		return append(children, child)
	}
	prev, ok := children[len(children)-1].(*ast.Text)
	if !ok || prev.Loc.End.Offset != text.Loc.Start.Offset {
		return append(children, child)
	}
	prev.Content += text.Content
	prev.Loc = p.loc(prev.Loc.Start.Offset, text.Loc.End.Offset)
	return children
}

func (p *Parser) parseText() *ast.Text {
	tok := p.l.Token
	return &ast.Text{
		Content: tok.Text,
		Loc:     p.loc(tok.Start, tok.End()),
	}
}

func (p *Parser) parseComment() *ast.Comment {
	tok := p.l.Token
	content := strings.TrimPrefix(tok.Text, "<!--")
	content = strings.TrimSuffix(content, "-->")
	return &ast.Comment{
		Content: content,
		Loc:     p.loc(tok.Start, tok.End()),
	}
}

func (p *Parser) parseInterpolation() (ast.Child, error) {
	start := p.l.Token.Start
	var expr token.Token
	if p.Accept(token.Expr) {
		expr = p.l.Token
	}
	if err := p.Expect(token.CloseMustache); err != nil {
		return nil, err
	}
	end := p.l.Token.End()
	if p.inPre {
		return &ast.Text{
			Content: p.input[start:end],
			Loc:     p.loc(start, end),
		}, nil
	}
	// Trim the expression and keep its location in sync
	content := strings.TrimLeftFunc(expr.Text, unicode.IsSpace)
	innerStart := expr.Start + len(expr.Text) - len(content)
	if expr.Type == "" {
		innerStart = start + 2
	}
	content = strings.TrimRightFunc(content, unicode.IsSpace)
	return &ast.Interpolation{
		Content: &ast.SimpleExpression{
			Content: content,
			Loc:     p.loc(innerStart, innerStart+len(content)),
		},
		Loc: p.loc(start, end),
	}, nil
}

type rawAttr struct {
	name  token.Token
	value *token.Token
}

func (p *Parser) parseElement() (ast.Child, error) {
	start := p.l.Token.Start
	if err := p.Expect(token.Identifier); err != nil {
		return nil, err
	}
	node := &ast.Element{
		Tag: p.Text(),
	}
	var attrs []rawAttr
	for !p.Is(token.GreaterThan, token.SlashGreaterThan) {
		if err := p.Expect(token.Attribute); err != nil {
			return nil, err
		}
		attr := rawAttr{name: p.l.Token}
		if p.Accept(token.Equal) {
			if err := p.Expect(token.Value); err != nil {
				return nil, err
			}
			value := p.l.Token
			attr.value = &value
		}
		attrs = append(attrs, attr)
	}

	// Entering v-pre turns every prop into a plain attribute
	wasPre := p.inPre
	if !p.inPre {
		for _, attr := range attrs {
			if attr.name.Text == "v-pre" {
				p.inPre = true
				break
			}
		}
	}
	defer func() { p.inPre = wasPre }()
	seen := map[string]bool{}
	for _, attr := range attrs {
		name := attr.name.Text
		if p.inPre && !wasPre && name == "v-pre" {
			continue
		}
		if seen[name] {
			p.errors = append(p.errors, p.errorf("duplicate attribute %q (%d:%d)", name, attr.name.Line, p.position(attr.name.Start).Column))
		}
		seen[name] = true
		if p.inPre {
			node.Props = append(node.Props, p.toAttribute(attr))
			continue
		}
		prop, err := p.toProp(attr)
		if err != nil {
			return nil, err
		}
		node.Props = append(node.Props, prop)
	}
	node.TagType = tagType(node.Tag, node.Props)

	if p.Accept(token.SlashGreaterThan) {
		node.SelfClosing = true
		node.Loc = p.loc(start, p.l.Token.End())
		return node, nil
	}
	if err := p.Expect(token.GreaterThan); err != nil {
		return nil, err
	}
	if lexer.IsVoid(node.Tag) {
		node.Loc = p.loc(start, p.l.Token.End())
		return node, nil
	}

	for !p.Accept(token.LessThanSlash) {
		if p.Is(token.EOF) {
			return nil, p.errorf("element <%s> is missing end tag (%d:%d)", node.Tag, p.position(start).Line, p.position(start).Column)
		}
		child, err := p.parseChild()
		if err != nil {
			return nil, err
		}
		node.Children = p.appendChild(node.Children, child)
	}

	// Closing tag
	if err := p.Expect(token.Identifier); err != nil {
		return nil, err
	} else if !strings.EqualFold(p.Text(), node.Tag) {
		return nil, p.errorf("expected closing tag %s, got %s (%d:%d)", node.Tag, p.Text(), p.l.Token.Line, p.position(p.l.Token.Start).Column)
	}
	if err := p.Expect(token.GreaterThan); err != nil {
		return nil, err
	}
	node.Loc = p.loc(start, p.l.Token.End())
	return node, nil
}

func (p *Parser) toAttribute(attr rawAttr) *ast.Attribute {
	node := &ast.Attribute{
		Name:    attr.name.Text,
		NameLoc: p.loc(attr.name.Start, attr.name.End()),
		Loc:     p.loc(attr.name.Start, attr.name.End()),
	}
	if attr.value != nil {
		node.Value = &ast.Text{
			Content: unquote(attr.value.Text),
			Loc:     p.loc(attr.value.Start, attr.value.End()),
		}
		node.Loc = p.loc(attr.name.Start, attr.value.End())
	}
	return node
}

func (p *Parser) toProp(attr rawAttr) (ast.Prop, error) {
	dir, ok := splitDirective(attr.name.Text)
	if !ok {
		return p.toAttribute(attr), nil
	}
	nameStart := attr.name.Start
	node := &ast.Directive{
		Name:    dir.name,
		RawName: attr.name.Text,
		Loc:     p.loc(nameStart, attr.name.End()),
	}
	if dir.arg != "" {
		argStart := nameStart + dir.argOffset
		node.Arg = &ast.SimpleExpression{
			Content:   dir.arg,
			IsStatic:  !dir.dynamic,
			ConstType: constType(!dir.dynamic),
			Loc:       p.loc(argStart, argStart+dir.argLen),
		}
	}
	for _, mod := range dir.modifiers {
		modStart := nameStart + mod.offset
		node.Modifiers = append(node.Modifiers, &ast.SimpleExpression{
			Content:   mod.name,
			IsStatic:  true,
			ConstType: ast.CanStringify,
			Loc:       p.loc(modStart, modStart+len(mod.name)),
		})
	}
	if dir.prop {
		// .foo is shorthand for v-bind:foo.prop
		node.Modifiers = append(node.Modifiers, &ast.SimpleExpression{
			Content:   "prop",
			IsStatic:  true,
			ConstType: ast.CanStringify,
		})
	}
	if attr.value != nil {
		value := attr.value
		content := unquote(value.Text)
		valueStart := value.Start
		if len(content) != len(value.Text) {
			valueStart++
		}
		node.Exp = &ast.SimpleExpression{
			Content: content,
			Loc:     p.loc(valueStart, valueStart+len(content)),
		}
		node.Loc = p.loc(nameStart, value.End())
	}
	return node, nil
}

func constType(static bool) ast.ConstType {
	if static {
		return ast.CanStringify
	}
	return ast.NotConstant
}

type modifier struct {
	name   string
	offset int
}

type directiveName struct {
	name      string
	arg       string
	argOffset int
	argLen    int
	dynamic   bool
	prop      bool
	modifiers []modifier
}

// splitDirective decomposes an attribute name into its directive parts. It
// returns false for plain attributes.
func splitDirective(raw string) (d directiveName, ok bool) {
	var rest string
	var offset int
	switch {
	case strings.HasPrefix(raw, "v-") && len(raw) > 2:
		body := raw[2:]
		i := strings.IndexAny(body, ":.")
		if i < 0 {
			d.name = body
			return d, true
		}
		d.name = body[:i]
		rest = body[i:]
		offset = 2 + i
		if rest[0] == ':' {
			rest = rest[1:]
			offset++
			break
		}
		d.modifiers = splitModifiers(rest, offset)
		return d, true
	case strings.HasPrefix(raw, ":"), strings.HasPrefix(raw, "."):
		d.name = "bind"
		d.prop = raw[0] == '.'
		rest, offset = raw[1:], 1
	case strings.HasPrefix(raw, "@"):
		d.name = "on"
		rest, offset = raw[1:], 1
	case strings.HasPrefix(raw, "#"):
		d.name = "slot"
		rest, offset = raw[1:], 1
	default:
		return d, false
	}
	// Argument
	if strings.HasPrefix(rest, "[") {
		if end := strings.IndexByte(rest, ']'); end > 0 {
			d.arg = rest[1:end]
			d.argOffset = offset + 1
			d.argLen = len(d.arg)
			d.dynamic = true
			d.modifiers = splitModifiers(rest[end+1:], offset+end+1)
			return d, true
		}
	}
	end := strings.IndexByte(rest, '.')
	if end < 0 {
		end = len(rest)
	}
	d.arg = rest[:end]
	d.argOffset = offset
	d.argLen = end
	d.modifiers = splitModifiers(rest[end:], offset+end)
	return d, true
}

func splitModifiers(rest string, offset int) (modifiers []modifier) {
	for len(rest) > 0 {
		if rest[0] != '.' {
			rest = rest[1:]
			offset++
			continue
		}
		rest = rest[1:]
		offset++
		end := strings.IndexByte(rest, '.')
		if end < 0 {
			end = len(rest)
		}
		if end > 0 {
			modifiers = append(modifiers, modifier{rest[:end], offset})
		}
		rest = rest[end:]
		offset += end
	}
	return modifiers
}

var builtinComponents = map[string]bool{
	"component":        true,
	"transition":       true,
	"transition-group": true,
	"keep-alive":       true,
	"teleport":         true,
	"suspense":         true,
}

var structuralDirectives = map[string]bool{
	"if":      true,
	"else":    true,
	"else-if": true,
	"for":     true,
	"slot":    true,
}

func tagType(tag string, props []ast.Prop) ast.ElementType {
	switch {
	case tag == "slot":
		return ast.ElementSlot
	case tag == "template":
		for _, prop := range props {
			if dir, ok := prop.(*ast.Directive); ok && structuralDirectives[dir.Name] {
				return ast.ElementTemplate
			}
		}
		return ast.ElementPlain
	case IsComponent(tag):
		return ast.ElementComponent
	default:
		return ast.ElementPlain
	}
}

// IsComponent returns true for tags that resolve to components
func IsComponent(tag string) bool {
	if tag == "" {
		return false
	}
	if unicode.IsUpper(rune(tag[0])) {
		return true
	}
	if builtinComponents[tag] {
		return true
	}
	return strings.ContainsAny(tag, "-.")
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func lineStarts(input string) []int {
	starts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (p *Parser) position(offset int) ast.Position {
	line := sort.Search(len(p.lines), func(i int) bool {
		return p.lines[i] > offset
	})
	return ast.Position{
		Offset: offset,
		Line:   line,
		Column: offset - p.lines[line-1] + 1,
	}
}

func (p *Parser) loc(start, end int) ast.Loc {
	return ast.Loc{
		Start:  p.position(start),
		End:    p.position(end),
		Source: p.input[start:end],
	}
}

// Returns true if the next token is one of the given types
func (p *Parser) Is(types ...token.Type) bool {
	token := p.l.Peak(1)
	for _, t := range types {
		if token.Type == t {
			return true
		}
	}
	return false
}

// Returns true if all the given tokens are next
func (p *Parser) Check(tokens ...token.Type) bool {
	for i, token := range tokens {
		if p.l.Peak(i+1).Type != token {
			return false
		}
	}
	return true
}

// Accepts the tokens if they're all next
func (p *Parser) Accept(tokens ...token.Type) bool {
	if !p.Check(tokens...) {
		return false
	}
	for i := 0; i < len(tokens); i++ {
		p.l.Next()
	}
	return true
}

func (p *Parser) Expect(tokens ...token.Type) error {
	for i, tok := range tokens {
		peaked := p.l.Peak(i + 1)
		if peaked.Type == token.Error {
			return p.errorf("%s (%d:%d)", peaked.Text, peaked.Line, p.position(peaked.Start).Column)
		} else if peaked.Type != tok {
			return p.errorf("expected %s, got %s (%d:%d)", tok, peaked.Type, peaked.Line, p.position(peaked.Start).Column)
		}
	}
	for i := 0; i < len(tokens); i++ {
		p.l.Next()
	}
	return nil
}

// Type of the current token
func (p *Parser) Type() token.Type {
	return p.l.Token.Type
}

// Text of the current token
func (p *Parser) Text() string {
	return p.l.Token.Text
}
