package compiler

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/js"
)

var (
	memberPath  = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:(?:\.|\?\.)[A-Za-z_$][\w$]*|\[[^\]]+\])*$`)
	forAlias    = regexp.MustCompile(`^([\s\S]*?)\s+(?:in|of)\s+(\S[\s\S]*)$`)
	forIterator = regexp.MustCompile(`,([^,\}\]]*)(?:,([^,\}\]]*))?$`)
)

type rewrite struct {
	token     js.Token
	shorthand bool
}

// prefix rewrites the identifiers of an expression that resolve against the
// component instance to read from _ctx. Each rewritten identifier keeps the
// location of the original name.
func (c *compiler) prefix(exp ast.Expression, sc *scope) ast.Expression {
	simple, ok := exp.(*ast.SimpleExpression)
	if !ok || simple.IsStatic || strings.TrimSpace(simple.Content) == "" {
		return exp
	}
	content := simple.Content
	tokens, err := js.Tokenize(content)
	if err != nil {
		// Leave what we can't lex alone
		return exp
	}
	rewrites := identifiers(tokens, sc)
	if len(rewrites) == 0 {
		return exp
	}
	if len(rewrites) == 1 && !rewrites[0].shorthand && rewrites[0].token.Text == content {
		simple.Content = "_ctx." + content
		return simple
	}
	compound := &ast.CompoundExpression{Loc: simple.Loc}
	last := 0
	for _, rw := range rewrites {
		start, end := rw.token.Start, rw.token.End()
		if start > last {
			compound.Children = append(compound.Children, ast.Str(content[last:start]))
		}
		if rw.shorthand {
			compound.Children = append(compound.Children, ast.Str(rw.token.Text+": "))
		}
		compound.Children = append(compound.Children, &ast.SimpleExpression{
			Content: "_ctx." + rw.token.Text,
			Loc:     subLoc(simple.Loc, content, start, end),
		})
		last = end
	}
	if last < len(content) {
		compound.Children = append(compound.Children, ast.Str(content[last:]))
	}
	return compound
}

func significant(tokens []js.Token) []js.Token {
	out := make([]js.Token, 0, len(tokens))
	for _, token := range tokens {
		if !token.IsTrivia() {
			out = append(out, token)
		}
	}
	return out
}

func tokenAt(tokens []js.Token, i int) js.Token {
	if i < 0 || i >= len(tokens) {
		return js.Token{}
	}
	return tokens[i]
}

// identifiers finds the identifiers to prefix
func identifiers(tokens []js.Token, sc *scope) []rewrite {
	tokens = significant(tokens)
	params, names := arrowParams(tokens)
	local := sc.With(names...)
	var stack []byte
	var out []rewrite
	for i, tok := range tokens {
		prev, next := tokenAt(tokens, i-1), tokenAt(tokens, i+1)
		switch tok.Type {
		case js.OpenBraceToken:
			if prev.Type == js.ArrowToken || prev.Type == js.CloseParenToken {
				stack = append(stack, 'b')
			} else {
				stack = append(stack, '{')
			}
		case js.OpenParenToken:
			stack = append(stack, '(')
		case js.OpenBracketToken:
			stack = append(stack, '[')
		case js.TemplateStartToken:
			stack = append(stack, '`')
		case js.CloseBraceToken, js.CloseParenToken, js.CloseBracketToken, js.TemplateEndToken:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
		if tok.Type != js.IdentifierToken || params[i] {
			continue
		}
		if prev.Type == js.DotToken || prev.Type == js.OptChainToken || next.Type == js.ArrowToken {
			continue
		}
		shorthand := false
		if len(stack) > 0 && stack[len(stack)-1] == '{' && (prev.Type == js.OpenBraceToken || prev.Type == js.CommaToken) {
			switch next.Type {
			case js.ColonToken, js.OpenParenToken:
				// Object keys and methods
				continue
			case js.CommaToken, js.CloseBraceToken:
				shorthand = true
			}
		}
		if !local.Prefixes(tok.Text) {
			continue
		}
		out = append(out, rewrite{tok, shorthand})
	}
	return out
}

// arrowParams finds the parameters of arrow functions in the expression
func arrowParams(tokens []js.Token) (map[int]bool, []string) {
	params := map[int]bool{}
	var names []string
	for i, tok := range tokens {
		if tok.Type != js.ArrowToken || i == 0 {
			continue
		}
		p := i - 1
		if tokens[p].Type == js.IdentifierToken {
			params[p] = true
			names = append(names, tokens[p].Text)
			continue
		}
		if tokens[p].Type != js.CloseParenToken {
			continue
		}
		depth := 0
		for q := p; q >= 0; q-- {
			switch tokens[q].Type {
			case js.CloseParenToken, js.CloseBraceToken, js.CloseBracketToken:
				depth++
			case js.OpenParenToken, js.OpenBraceToken, js.OpenBracketToken:
				depth--
			}
			if depth != 0 {
				continue
			}
			for r := q + 1; r < p; r++ {
				if tokens[r].Type != js.IdentifierToken {
					continue
				}
				if tokens[r+1].Type == js.ColonToken || tokens[r-1].Type == js.EqToken {
					continue
				}
				params[r] = true
				names = append(names, tokens[r].Text)
			}
			break
		}
	}
	return params, names
}

// bindingNames returns the names a destructuring pattern introduces
func bindingNames(exp ast.Expression) []string {
	simple, ok := exp.(*ast.SimpleExpression)
	if !ok {
		return nil
	}
	tokens, err := js.Tokenize(simple.Content)
	if err != nil {
		return nil
	}
	tokens = significant(tokens)
	var names []string
	for i, tok := range tokens {
		if tok.Type != js.IdentifierToken {
			continue
		}
		prev, next := tokenAt(tokens, i-1), tokenAt(tokens, i+1)
		if prev.Type == js.DotToken || prev.Type == js.EqToken || next.Type == js.ColonToken {
			continue
		}
		names = append(names, tok.Text)
	}
	return names
}

// parseFor splits a v-for expression like "(item, key, index) in items"
func parseFor(exp ast.Expression) (*ast.ForParseResult, bool) {
	simple, ok := exp.(*ast.SimpleExpression)
	if !ok {
		return nil, false
	}
	content := simple.Content
	m := forAlias.FindStringSubmatchIndex(content)
	if m == nil {
		return nil, false
	}
	result := &ast.ForParseResult{
		Source: alias(simple, m[4], m[5]),
	}
	if result.Source == nil {
		return nil, false
	}
	start, end := trimSpan(content, m[2], m[3])
	if start < end && content[start] == '(' {
		start++
	}
	if end > start && content[end-1] == ')' {
		end--
	}
	valueEnd := end
	if it := forIterator.FindStringSubmatchIndex(content[start:end]); it != nil {
		valueEnd = start + it[0]
		result.Key = alias(simple, start+it[2], start+it[3])
		if it[4] >= 0 {
			result.Index = alias(simple, start+it[4], start+it[5])
		}
	}
	result.Value = alias(simple, start, valueEnd)
	return result, true
}

// alias returns the trimmed span as an expression or nil when it's empty
func alias(parent *ast.SimpleExpression, start, end int) ast.Expression {
	start, end = trimSpan(parent.Content, start, end)
	if start >= end {
		return nil
	}
	return &ast.SimpleExpression{
		Content: parent.Content[start:end],
		Loc:     subLoc(parent.Loc, parent.Content, start, end),
	}
}

func trimSpan(s string, start, end int) (int, int) {
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// subLoc is the location of content[start:end] where content begins at the
// start of the parent location
func subLoc(parent ast.Loc, content string, start, end int) ast.Loc {
	loc := ast.Loc{Source: content[start:end]}
	if parent.IsZero() {
		return loc
	}
	loc.Start = advance(parent.Start, content[:start])
	loc.End = advance(loc.Start, content[start:end])
	return loc
}

func advance(pos ast.Position, text string) ast.Position {
	for i := 0; i < len(text); i++ {
		pos.Offset++
		if text[i] == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}
