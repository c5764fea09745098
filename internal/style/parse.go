package style

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/matthewmueller/css"
	"github.com/tdewolff/parse/v2"
	tcss "github.com/tdewolff/parse/v2/css"
)

// Parse a stylesheet. Lang is css, scss, less or postcss. The preprocessor
// languages accept line comments, interpolation and declarations without a
// value.
func Parse(path, source, lang string) (*Root, error) {
	tokens, err := tokenize(source, lang)
	if err != nil {
		return nil, fmt.Errorf("style: unable to tokenize %s: %w", path, err)
	}
	p := &parser{
		path:   path,
		lang:   lang,
		source: source,
		tokens: tokens,
	}
	root := NewRoot()
	root.parsed = true
	if err := p.children(root, true); err != nil {
		return nil, err
	}
	return root, nil
}

// Validate checks that plain CSS parses. Preprocessor languages are checked
// by the preprocessor later on.
func Validate(path, code, lang string) error {
	if lang != "" && lang != "css" {
		return nil
	}
	if _, err := css.Parse(path, code); err != nil {
		return fmt.Errorf("style: invalid css in %s: %w", path, err)
	}
	return nil
}

type token struct {
	kind  tcss.TokenType
	text  string
	start int
}

// lineCommentToken marks // comments, which the css lexer doesn't know
const lineCommentToken tcss.TokenType = 255

func preprocessed(lang string) bool {
	return lang == "scss" || lang == "sass" || lang == "less"
}

func tokenize(source, lang string) ([]token, error) {
	var tokens []token
	base := 0
	lexer := tcss.NewLexer(parse.NewInputString(source))
	offset := 0
	for {
		kind, data := lexer.Next()
		if kind == tcss.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return tokens, nil
		}
		start := base + offset
		offset += len(data)
		if preprocessed(lang) && kind == tcss.DelimToken && data[0] == '/' && strings.HasPrefix(source[start:], "//") {
			// Skip to the end of the line and restart the lexer there
			end := strings.IndexByte(source[start:], '\n')
			if end < 0 {
				end = len(source) - start
			}
			tokens = append(tokens, token{lineCommentToken, source[start : start+end], start})
			base, offset = start+end, 0
			lexer = tcss.NewLexer(parse.NewInputString(source[base:]))
			continue
		}
		tokens = append(tokens, token{kind, string(data), start})
	}
}

type parser struct {
	path   string
	lang   string
	source string
	tokens []token
	pos    int
}

func (p *parser) errorf(offset int, format string, args ...interface{}) error {
	before := p.source[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return fmt.Errorf("style: %s:%d:%d: %s", p.path, line, col, fmt.Sprintf(format, args...))
}

func (p *parser) peek(i int) (token, bool) {
	if p.pos+i >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos+i], true
}

// children parses nodes until the closing brace of the parent, or the end of
// the input for the root
func (p *parser) children(parent Container, isRoot bool) error {
	c := parent.box()
	start := len(p.source)
	if tok, ok := p.peek(0); ok {
		start = tok.start
	}
	before := ""
	semicolon := false
	for {
		tok, ok := p.peek(0)
		if !ok {
			if !isRoot {
				return p.errorf(start, "Unclosed block")
			}
			c.After = before
			c.Semicolon = semicolon
			return nil
		}
		switch tok.kind {
		case tcss.WhitespaceToken:
			before += tok.text
			p.pos++
		case tcss.SemicolonToken:
			before += tok.text
			p.pos++
		case tcss.CommentToken, lineCommentToken:
			comment := newParsedComment(tok)
			comment.Before = before
			before = ""
			p.pos++
			appendParsed(parent, comment)
		case tcss.RightBraceToken:
			if isRoot {
				return p.errorf(tok.start, "Unexpected }")
			}
			p.pos++
			c.After = before
			c.Semicolon = semicolon
			return nil
		default:
			node, ended, err := p.statement()
			if err != nil {
				return err
			}
			node.base().Before = before
			before = ""
			semicolon = ended
			appendParsed(parent, node)
		}
	}
}

// appendParsed skips the raw defaults that Append applies to new nodes
func appendParsed(parent Container, n Node) {
	c := parent.box()
	n.base().parent = parent
	c.nodes = append(c.nodes, n)
}

func newParsedComment(tok token) *Comment {
	comment := &Comment{}
	comment.parsed = true
	inner := tok.text
	if tok.kind == lineCommentToken {
		comment.Inline = true
		inner = strings.TrimPrefix(inner, "//")
	} else {
		inner = strings.TrimSuffix(strings.TrimPrefix(inner, "/*"), "*/")
	}
	text := strings.TrimSpace(inner)
	if text == "" {
		comment.Left = inner
		return comment
	}
	comment.Left = inner[:strings.Index(inner, text)]
	comment.Text = text
	comment.Right = inner[len(comment.Left)+len(text):]
	return comment
}

// statement reads a rule, an at-rule or a declaration. Ended is true when the
// statement was closed with a semicolon.
func (p *parser) statement() (node Node, ended bool, err error) {
	first := p.pos
	depth, interpolation := 0, 0
	for ; p.pos < len(p.tokens); p.pos++ {
		tok := p.tokens[p.pos]
		if interpolation > 0 {
			switch tok.kind {
			case tcss.LeftBraceToken:
				interpolation++
			case tcss.RightBraceToken:
				interpolation--
			}
			continue
		}
		switch tok.kind {
		case tcss.DelimToken:
			if next, ok := p.peek(1); ok && tok.text == "#" && next.kind == tcss.LeftBraceToken {
				interpolation++
				p.pos++
			}
		case tcss.FunctionToken, tcss.LeftParenthesisToken, tcss.LeftBracketToken:
			depth++
		case tcss.RightParenthesisToken, tcss.RightBracketToken:
			depth--
		case tcss.LeftBraceToken:
			if depth > 0 {
				continue
			}
			text := p.source[p.tokens[first].start:tok.start]
			p.pos++
			node, err := p.block(p.tokens[first], text)
			return node, false, err
		case tcss.SemicolonToken:
			if depth > 0 {
				continue
			}
			text := p.source[p.tokens[first].start:tok.start]
			p.pos++
			node, err := p.simple(p.tokens[first], text)
			return node, true, err
		case tcss.RightBraceToken:
			if depth > 0 {
				continue
			}
			node, err := p.simple(p.tokens[first], p.source[p.tokens[first].start:tok.start])
			return node, false, err
		}
	}
	node, err = p.simple(p.tokens[first], p.source[p.tokens[first].start:])
	return node, false, err
}

// splitSpace splits trailing whitespace off text
func splitSpace(text string) (string, string) {
	trimmed := strings.TrimRight(text, " \t\r\n\f")
	return trimmed, text[len(trimmed):]
}

// splitAtRule splits "@name params" into its parts
func splitAtRule(text string) (name, afterName, params string) {
	text = text[1:]
	end := strings.IndexFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '(' || r == ':' || r == '"' || r == '\''
	})
	if end < 0 {
		return text, "", ""
	}
	name, rest := text[:end], text[end:]
	params = strings.TrimLeft(rest, " \t\r\n\f")
	afterName = rest[:len(rest)-len(params)]
	if strings.HasPrefix(params, ":") {
		// Less variables keep their colon between the name and the value
		value := strings.TrimLeft(params[1:], " \t\r\n\f")
		afterName += params[:len(params)-len(value)]
		params = value
	}
	return name, afterName, params
}

func (p *parser) block(first token, text string) (Node, error) {
	text, between := splitSpace(text)
	var parent Container
	if first.kind == tcss.AtKeywordToken {
		name, afterName, params := splitAtRule(text)
		rule := &AtRule{Name: name, AfterName: afterName, Params: params, Between: between, Block: true}
		rule.self = rule
		rule.parsed = true
		parent = rule
	} else {
		rule := &Rule{Selector: text, Between: between}
		rule.self = rule
		rule.parsed = true
		parent = rule
	}
	if err := p.children(parent, false); err != nil {
		return nil, err
	}
	return parent, nil
}

var important = regexp.MustCompile(`(?i)\s*!\s*important$`)

func (p *parser) simple(first token, text string) (Node, error) {
	text, trailing := splitSpace(text)
	if first.kind == tcss.AtKeywordToken {
		name, afterName, params := splitAtRule(text)
		if params == "" {
			afterName, trailing = "", afterName+trailing
		}
		rule := &AtRule{Name: name, AfterName: afterName, Params: params, Between: trailing}
		rule.self = rule
		rule.parsed = true
		return rule, nil
	}
	decl := &Decl{AfterValue: trailing}
	decl.parsed = true
	colon := p.colon(first.start, first.start+len(text))
	if colon < 0 {
		if !preprocessed(p.lang) {
			return nil, p.errorf(first.start, "Unknown word")
		}
		decl.Prop = text
		return decl, nil
	}
	colon -= first.start
	prop, space := splitSpace(text[:colon])
	value := strings.TrimLeft(text[colon+1:], " \t\r\n\f")
	decl.Prop = prop
	decl.Between = space + text[colon:len(text)-len(value)]
	if match := important.FindString(value); match != "" {
		decl.Important = true
		decl.ImportantRaw = match
		value = value[:len(value)-len(match)]
	}
	decl.Value = value
	return decl, nil
}

// colon returns the offset of the first top-level colon between start and
// end, or -1
func (p *parser) colon(start, end int) int {
	depth := 0
	for _, tok := range p.tokens {
		if tok.start < start {
			continue
		}
		if tok.start >= end {
			break
		}
		switch tok.kind {
		case tcss.FunctionToken, tcss.LeftParenthesisToken, tcss.LeftBracketToken:
			depth++
		case tcss.RightParenthesisToken, tcss.RightBracketToken:
			depth--
		case tcss.ColonToken:
			if depth == 0 {
				return tok.start
			}
		}
	}
	return -1
}
