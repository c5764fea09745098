package lexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/livebud/sfcmod/internal/token"
)

type state = func(l *Lexer) token.Type

// New lexer for template markup. The contents of <script> and <style> are
// lexed as raw text.
func New(input string) *Lexer {
	return newLexer(input, func(tag, _ string, _ int) bool {
		tag = strings.ToLower(tag)
		return tag == "script" || tag == "style"
	})
}

// NewDocument creates a lexer for a single-file component document. Every
// top-level element except <template> is a raw text container so that
// arbitrary script and style syntax can't confuse the markup. Templates in
// another language like <template lang="pug"> are raw text too.
func NewDocument(input string) *Lexer {
	return newLexer(input, func(tag, open string, depth int) bool {
		if depth > 0 {
			return false
		}
		if strings.ToLower(tag) != "template" {
			return true
		}
		m := langAttr.FindStringSubmatch(open)
		return m != nil && m[1] != "" && m[1] != "html"
	})
}

var langAttr = regexp.MustCompile(`\slang\s*=\s*["']?([^"'\s>]*)`)

func newLexer(input string, raw func(tag, open string, depth int) bool) *Lexer {
	l := &Lexer{
		input:     input,
		states:    []state{textState},
		line:      1,
		startLine: 1,
		raw:       raw,
	}
	l.step()
	return l
}

func Lex(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for l.Next() {
		tokens = append(tokens, l.Token)
		if l.Token.Type == token.Error {
			break
		}
	}
	return tokens
}

// Print the input as tokens
func Print(input string) string {
	tokens := Lex(input)
	stoken := make([]string, len(tokens))
	for i, token := range tokens {
		stoken[i] = token.String()
	}
	return strings.Join(stoken, " ")
}

type Lexer struct {
	Token     token.Token // Current token
	input     string      // Input string
	start     int         // Index to the start of the current token
	end       int         // Index to the end of the current token
	cp        rune        // Code point being considered
	next      int         // Index to the next rune to be considered
	line      int         // Line number
	startLine int         // Line number at the start of the current token
	err       string      // Error message for an error token

	states []state // Stack of states
	peaked []token.Token

	raw      func(tag, open string, depth int) bool
	tag      string // Most recent tag name
	tagStart int    // Offset of the "<" of the most recent tag
	closing bool   // Whether the most recent tag is a closing tag
	depth   int    // Number of open elements
}

func (l *Lexer) nextToken() token.Token {
	l.start = l.end
	l.startLine = l.line
	tokenType := l.states[len(l.states)-1](l)
	t := token.Token{
		Type:  tokenType,
		Start: l.start,
		Text:  l.input[l.start:l.end],
		Line:  l.startLine,
	}
	if tokenType == token.Error {
		t.Text = l.err
		l.err = ""
	}
	return t
}

func (l *Lexer) Next() bool {
	if len(l.peaked) > 0 {
		l.Token = l.peaked[0]
		l.peaked = l.peaked[1:]
	} else {
		l.Token = l.nextToken()
	}
	return l.Token.Type != token.EOF
}

func (l *Lexer) Peak(nth int) token.Token {
	if len(l.peaked) >= nth {
		return l.peaked[nth-1]
	}
	for i := len(l.peaked); i < nth; i++ {
		l.peaked = append(l.peaked, l.nextToken())
	}
	return l.peaked[nth-1]
}

func (l *Lexer) Latest() token.Token {
	if len(l.peaked) > 0 {
		return l.peaked[len(l.peaked)-1]
	}
	return l.Token
}

// Use -1 to indicate the end of the file
const eof = -1

// Step advances the lexer to the next code point
func (l *Lexer) step() {
	codePoint, width := utf8.DecodeRuneInString(l.input[l.next:])
	if width == 0 {
		codePoint = eof
	}
	if l.cp == '\n' {
		l.line++
	}
	l.cp = codePoint
	l.end = l.next
	l.next += width
}

func (l *Lexer) ignore() {
	l.start = l.end
	l.startLine = l.line
}

func (l *Lexer) accept(cp rune, run ...rune) bool {
	if l.cp != cp {
		return false
	}
	str := l.peak(len(run))
	if len(str) != len(run) {
		return false
	}
	for i, r := range str {
		if r != run[i] {
			return false
		}
	}
	for i := 0; i < len(run)+1; i++ {
		l.step()
	}
	return true
}

func (l *Lexer) acceptFold(cp rune, run ...rune) bool {
	if unicode.ToLower(l.cp) != unicode.ToLower(cp) {
		return false
	}
	str := l.peak(len(run))
	if len(str) != len(run) {
		return false
	}
	for i, r := range str {
		if unicode.ToLower(r) != unicode.ToLower(run[i]) {
			return false
		}
	}
	for i := 0; i < len(run)+1; i++ {
		l.step()
	}
	return true
}

func (l *Lexer) text() string {
	return l.input[l.start:l.end]
}

func (l *Lexer) peak(n int) []rune {
	runes := make([]rune, 0, n)
	next := l.next
	for i := 0; i < n; i++ {
		cp, width := utf8.DecodeRuneInString(l.input[next:])
		if width == 0 {
			break
		}
		runes = append(runes, cp)
		next += width
	}
	return runes
}

// hasPrefixFold reports whether the unconsumed input starts with prefix,
// ignoring case
func (l *Lexer) hasPrefixFold(prefix string) bool {
	rest := l.input[l.end:]
	if len(rest) < len(prefix) {
		return false
	}
	return strings.EqualFold(rest[:len(prefix)], prefix)
}

func (l *Lexer) pushState(state state) {
	l.states = append(l.states, state)
}

func (l *Lexer) popState() {
	l.states = l.states[:len(l.states)-1]
}

func (l *Lexer) errorf(msg string, args ...interface{}) token.Type {
	l.err = fmt.Sprintf(msg, args...)
	return token.Error
}

func (l *Lexer) unexpected() token.Type {
	cp := l.cp
	l.step()
	if cp == eof || l.cp == eof {
		return l.errorf("unexpected end of input")
	}
	return l.errorf("unexpected token '%s'", string(cp))
}

func textState(l *Lexer) token.Type {
	switch l.cp {
	case eof:
		return token.EOF
	case '<':
		next := l.peak(1)
		switch {
		case len(next) == 1 && next[0] == '/':
			l.step()
			l.step()
			l.closing = true
			l.pushState(startCloseTagState)
			return token.LessThanSlash
		case len(next) == 1 && next[0] == '!':
			l.step()
			l.step()
			switch {
			case l.accept('-', '-'):
				for !l.accept('-', '-', '>') {
					if l.cp == eof {
						return l.errorf("unterminated comment")
					}
					l.step()
				}
				return token.Comment
			case l.acceptFold('d', 'o', 'c', 't', 'y', 'p', 'e'):
				for l.cp != '>' {
					if l.cp == eof {
						return l.unexpected()
					}
					l.step()
				}
				l.step()
				return token.Doctype
			default:
				return l.unexpected()
			}
		case len(next) == 1 && isAlpha(next[0]):
			l.step()
			l.closing = false
			l.pushState(startOpenTagState)
			return token.LessThan
		}
		// A lone "<" is text
		l.step()
		return textRun(l)
	case '{':
		if l.accept('{', '{') {
			l.pushState(mustacheState)
			return token.OpenMustache
		}
		l.step()
		return textRun(l)
	default:
		return textRun(l)
	}
}

func textRun(l *Lexer) token.Type {
	for l.cp != eof {
		switch l.cp {
		case '<':
			next := l.peak(1)
			if len(next) == 1 && (next[0] == '/' || next[0] == '!' || isAlpha(next[0])) {
				return token.Text
			}
		case '{':
			next := l.peak(1)
			if len(next) == 1 && next[0] == '{' {
				return token.Text
			}
		}
		l.step()
	}
	return token.Text
}

func startOpenTagState(l *Lexer) token.Type {
	for isTagNameChar(l.cp) {
		l.step()
	}
	l.tag = l.text()
	l.tagStart = l.start - 1
	l.popState()
	l.pushState(middleTagState)
	return token.Identifier
}

func middleTagState(l *Lexer) token.Type {
	for {
		switch {
		case l.cp == eof:
			l.popState()
			return l.unexpected()
		case isSpace(l.cp):
			l.step()
			for isSpace(l.cp) {
				l.step()
			}
			l.ignore()
			continue
		case l.cp == '>':
			l.step()
			l.popState()
			l.openTag()
			return token.GreaterThan
		case l.cp == '/' && l.accept('/', '>'):
			l.popState()
			return token.SlashGreaterThan
		case l.cp == '/':
			// Stray slashes are ignored, like browsers do
			l.step()
			l.ignore()
			continue
		case l.cp == '=':
			l.step()
			l.pushState(attributeValueState)
			return token.Equal
		default:
			return attributeName(l)
		}
	}
}

// openTag is called after the closing ">" of an opening tag
func (l *Lexer) openTag() {
	if IsVoid(l.tag) {
		return
	}
	if l.raw(l.tag, l.input[l.tagStart:l.end], l.depth) {
		l.pushState(rawTextState(l.tag))
	}
	l.depth++
}

func attributeName(l *Lexer) token.Type {
	for {
		switch {
		case l.cp == eof || isSpace(l.cp) || l.cp == '>' || l.cp == '=':
			return token.Attribute
		case l.cp == '/':
			if next := l.peak(1); len(next) == 1 && next[0] == '>' {
				return token.Attribute
			}
			l.step()
		case l.cp == '[':
			// Dynamic arguments may contain any character up to the closing bracket
			for l.cp != ']' && l.cp != eof {
				l.step()
			}
			l.step()
		default:
			l.step()
		}
	}
}

func attributeValueState(l *Lexer) token.Type {
	for {
		switch {
		case l.cp == eof:
			l.popState()
			return l.unexpected()
		case isSpace(l.cp):
			l.step()
			for isSpace(l.cp) {
				l.step()
			}
			l.ignore()
			continue
		case l.cp == '"' || l.cp == '\'':
			quote := l.cp
			l.step()
			for l.cp != quote {
				if l.cp == eof {
					l.popState()
					return l.errorf("unterminated attribute value")
				}
				l.step()
			}
			l.step()
			l.popState()
			return token.Value
		default:
			for !isSpace(l.cp) && l.cp != '>' && l.cp != eof {
				l.step()
			}
			l.popState()
			return token.Value
		}
	}
}

func rawTextState(tag string) state {
	closer := "</" + tag
	return func(l *Lexer) token.Type {
		for {
			if l.cp == eof {
				l.popState()
				if l.start == l.end {
					return token.EOF
				}
				return token.RawText
			}
			if l.cp == '<' && l.hasPrefixFold(closer) {
				rest := l.input[l.end+len(closer):]
				if rest == "" || rest[0] == '>' || rest[0] == '/' || isSpace(rune(rest[0])) {
					l.popState()
					if l.start == l.end {
						// Empty content, continue with the closing tag
						return textState(l)
					}
					return token.RawText
				}
			}
			l.step()
		}
	}
}

func startCloseTagState(l *Lexer) token.Type {
	for {
		switch {
		case l.cp == eof:
			l.popState()
			return l.unexpected()
		case isSpace(l.cp):
			l.step()
			for isSpace(l.cp) {
				l.step()
			}
			l.ignore()
			continue
		case l.cp == '>':
			l.step()
			l.popState()
			if l.depth > 0 {
				l.depth--
			}
			return token.GreaterThan
		case isTagNameChar(l.cp):
			for isTagNameChar(l.cp) {
				l.step()
			}
			l.tag = l.text()
			return token.Identifier
		default:
			l.popState()
			return l.unexpected()
		}
	}
}

func mustacheState(l *Lexer) token.Type {
	if l.accept('}', '}') {
		l.popState()
		return token.CloseMustache
	}
	for {
		switch {
		case l.cp == eof:
			l.popState()
			return l.errorf("unterminated interpolation")
		case l.cp == '}':
			if next := l.peak(1); len(next) == 1 && next[0] == '}' {
				return token.Expr
			}
			l.step()
		case l.cp == '\'' || l.cp == '"' || l.cp == '`':
			// Skip over string literals so braces inside them don't close
			quote := l.cp
			l.step()
			for l.cp != quote && l.cp != eof {
				if l.cp == '\\' {
					l.step()
				}
				l.step()
			}
			l.step()
		default:
			l.step()
		}
	}
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoid returns true for HTML elements that never have children
func IsVoid(tag string) bool {
	return voidTags[strings.ToLower(tag)]
}

func isTagNameChar(cp rune) bool {
	return cp != eof && !isSpace(cp) && cp != '>' && cp != '/' && cp != '<' && cp != '='
}

func isAlpha(cp rune) bool {
	return (cp >= 'a' && cp <= 'z') || (cp >= 'A' && cp <= 'Z')
}

func isSpace(cp rune) bool {
	return cp == ' ' || cp == '\t' || cp == '\n' || cp == '\r' || cp == '\f'
}
