package js

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/ije/esbuild-internal/ast"
	"github.com/ije/esbuild-internal/config"
	"github.com/ije/esbuild-internal/js_parser"
	"github.com/ije/esbuild-internal/logger"
	"github.com/ije/esbuild-internal/test"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

type (
	AST                   = js.AST
	INode                 = js.INode
	IExpr                 = js.IExpr
	IStmt                 = js.IStmt
	ExprStmt              = js.ExprStmt
	ImportStmt            = js.ImportStmt
	DirectivePrologueStmt = js.DirectivePrologueStmt
	TokenType             = js.TokenType
)

const (
	IdentifierToken    = js.IdentifierToken
	StringToken        = js.StringToken
	DotToken           = js.DotToken
	OptChainToken      = js.OptChainToken
	CommaToken         = js.CommaToken
	ColonToken         = js.ColonToken
	SemicolonToken     = js.SemicolonToken
	ArrowToken         = js.ArrowToken
	EllipsisToken      = js.EllipsisToken
	OpenBraceToken     = js.OpenBraceToken
	CloseBraceToken    = js.CloseBraceToken
	OpenParenToken     = js.OpenParenToken
	CloseParenToken    = js.CloseParenToken
	OpenBracketToken   = js.OpenBracketToken
	CloseBracketToken  = js.CloseBracketToken
	TemplateToken      = js.TemplateToken
	TemplateStartToken = js.TemplateStartToken
	TemplateMiddle     = js.TemplateMiddleToken
	TemplateEndToken   = js.TemplateEndToken
	EqToken            = js.EqToken
	InToken            = js.InToken
	OfToken            = js.OfToken
	ImportToken        = js.ImportToken
	FromToken          = js.FromToken
	AsToken            = js.AsToken
	MulToken           = js.MulToken
	WhitespaceToken    = js.WhitespaceToken
	LineTerminator     = js.LineTerminatorToken
	CommentToken       = js.CommentToken
	CommentLineToken   = js.CommentLineTerminatorToken
)

// Token is a lexed piece of JavaScript
type Token struct {
	Type  TokenType
	Text  string
	Start int // Byte offset in the code
}

// End offset of the token
func (t Token) End() int {
	return t.Start + len(t.Text)
}

// IsTrivia returns true for whitespace and comments
func (t Token) IsTrivia() bool {
	return isTrivia(t.Type)
}

// IsIdentifier returns true for identifiers and contextual keywords
func (t Token) IsIdentifier() bool {
	return js.IsIdentifier(t.Type)
}

func isTrivia(tt TokenType) bool {
	switch tt {
	case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		return true
	}
	return false
}

// Tokenize code into tokens. Concatenating the token text gives back the code.
func Tokenize(code string) ([]Token, error) {
	l := js.NewLexer(parse.NewInputString(code))
	var tokens []Token
	offset := 0
	prev := js.ErrorToken
	for {
		tt, data := l.Next()
		switch tt {
		case js.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return tokens, nil
		case js.DivToken, js.DivEqToken:
			if regexpAllowed(prev) {
				tt, data = l.RegExp()
				if tt == js.ErrorToken {
					return nil, l.Err()
				}
			}
		}
		tokens = append(tokens, Token{tt, string(data), offset})
		offset += len(data)
		if !isTrivia(tt) {
			prev = tt
		}
	}
}

// A slash starts a regular expression unless it follows a value
func regexpAllowed(prev TokenType) bool {
	switch prev {
	case js.ErrorToken:
		return true
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.ThisToken, js.SuperToken, js.TrueToken, js.FalseToken, js.NullToken:
		return false
	}
	if js.IsIdentifier(prev) {
		return false
	}
	return js.IsPunctuator(prev) || js.IsOperator(prev) || js.IsReservedWord(prev)
}

// Statement is a top-level statement in a module
type Statement struct {
	Start int
	End   int
}

// Import is an import record in a module
type Import struct {
	Kind  string // import, require or dynamic
	Path  string
	Start int // Offset of the quoted path
	End   int
}

// Module is a parsed module with byte offsets into the original code
type Module struct {
	Statements []Statement
	Imports    []Import
}

func isTS(lang string) bool {
	return lang == "ts" || lang == "tsx" || lang == "mts" || lang == "cts"
}

func isJSX(lang string) bool {
	return lang == "jsx" || lang == "tsx"
}

// ParseModule parses code with esbuild and keeps the offsets of its statements
// and import records
func ParseModule(code, lang string) (*Module, error) {
	log := logger.NewDeferLog(logger.DeferLogNoVerboseOrDebug, nil)
	options := config.Options{}
	if isTS(lang) {
		options.TS = config.TSOptions{
			Parse: true,
			Config: config.TSConfig{
				VerbatimModuleSyntax: config.True,
			},
		}
	}
	if isJSX(lang) {
		options.JSX = config.JSXOptions{
			Parse: true,
		}
	}
	tree, ok := js_parser.Parse(log, test.SourceForTest(code), js_parser.OptionsFromConfig(&options))
	if !ok {
		return nil, logErrors(log.Done())
	}
	module := new(Module)
	seen := map[int]bool{}
	var starts []int
	for _, part := range tree.Parts {
		for _, stmt := range part.Stmts {
			start := int(stmt.Loc.Start)
			if seen[start] || start < 0 || start > len(code) {
				continue
			}
			seen[start] = true
			starts = append(starts, start)
		}
	}
	sort.Ints(starts)
	for i, start := range starts {
		end := len(code)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		end = start + significantLen(code[start:end])
		module.Statements = append(module.Statements, Statement{start, end})
	}
	for _, record := range tree.ImportRecords {
		start := int(record.Range.Loc.Start)
		end := start + int(record.Range.Len)
		if start < 0 || end > len(code) || start >= end {
			continue
		}
		module.Imports = append(module.Imports, Import{
			Kind:  importKind(record.Kind),
			Path:  record.Path.Text,
			Start: start,
			End:   end,
		})
	}
	// The parser only records require calls when bundling
	for _, imp := range requireImports(code) {
		if !hasImport(module.Imports, imp.Start) {
			module.Imports = append(module.Imports, imp)
		}
	}
	sort.Slice(module.Imports, func(i, j int) bool {
		return module.Imports[i].Start < module.Imports[j].Start
	})
	return module, nil
}

// requireImports finds require("path") calls that aren't member accesses
func requireImports(code string) (imports []Import) {
	tokens, err := Tokenize(code)
	if err != nil {
		return nil
	}
	var sig []Token
	for _, token := range tokens {
		if !token.IsTrivia() {
			sig = append(sig, token)
		}
	}
	for i := 0; i+3 < len(sig); i++ {
		if sig[i].Text != "require" || sig[i+1].Text != "(" || sig[i+3].Text != ")" {
			continue
		}
		if i > 0 && (sig[i-1].Text == "." || sig[i-1].Text == "?.") {
			continue
		}
		arg := sig[i+2]
		if arg.Type != js.StringToken || len(arg.Text) < 2 {
			continue
		}
		imports = append(imports, Import{
			Kind:  "require",
			Path:  arg.Text[1 : len(arg.Text)-1],
			Start: arg.Start,
			End:   arg.End(),
		})
	}
	return imports
}

func hasImport(imports []Import, start int) bool {
	for _, imp := range imports {
		if imp.Start == start {
			return true
		}
	}
	return false
}

// significantLen is the length of code without trailing whitespace and
// comments
func significantLen(code string) int {
	tokens, err := Tokenize(code)
	if err != nil {
		return len(strings.TrimRight(code, " \t\r\n"))
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if !tokens[i].IsTrivia() {
			return tokens[i].End()
		}
	}
	return 0
}

func importKind(kind ast.ImportKind) string {
	switch kind {
	case ast.ImportRequire, ast.ImportRequireResolve:
		return "require"
	case ast.ImportDynamic:
		return "dynamic"
	default:
		return "import"
	}
}

func logErrors(msgs []logger.Msg) error {
	var errs []error
	for _, msg := range msgs {
		if msg.Kind != logger.Error {
			continue
		}
		errs = append(errs, errors.New(strings.TrimSpace(msg.String(logger.OutputOptions{}, logger.TerminalInfo{}))))
	}
	if len(errs) == 0 {
		return errors.New("js: unable to parse")
	}
	return errors.Join(errs...)
}

func loader(lang string) esbuild.Loader {
	switch lang {
	case "ts", "mts", "cts":
		return esbuild.LoaderTS
	case "tsx":
		return esbuild.LoaderTSX
	case "jsx":
		return esbuild.LoaderJSX
	default:
		return esbuild.LoaderJS
	}
}

// ParseProgram returns a queryable program tree. esbuild strips types and
// lowers JSX first because the tree parser only understands JavaScript.
func ParseProgram(path, code, lang string) (*js.AST, error) {
	result := esbuild.Transform(code, esbuild.TransformOptions{
		Sourcefile:  path,
		Loader:      loader(lang),
		TsconfigRaw: `{ "compilerOptions": { "verbatimModuleSyntax": true } }`,
	})
	if len(result.Errors) > 0 {
		var errs []error
		for _, err := range result.Errors {
			errs = append(errs, errors.New(err.Text))
		}
		return nil, errors.Join(errs...)
	}
	// Re-parse the code using the tdewolff/parser
	ast, err := js.Parse(parse.NewInputBytes(result.Code), js.Options{})
	if err != nil {
		return nil, err
	}
	return ast, nil
}

// ParseExpr parses a JavaScript expression
func ParseExpr(contents string) (js.IExpr, error) {
	ast, err := js.Parse(parse.NewInputString(contents), js.Options{})
	if err != nil {
		return nil, err
	}
	stmts := ast.BlockStmt.List
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected one statement, got %d", len(stmts))
	}
	es, ok := stmts[0].(*js.ExprStmt)
	if !ok {
		return nil, fmt.Errorf("expected expression statement, got %T", stmts[0])
	}
	return es.Value, nil
}

// Print a JavaScript AST
func Print(ast js.INode) string {
	var b strings.Builder
	ast.JS(&b)
	return strings.TrimSpace(b.String())
}
