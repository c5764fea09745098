package token

import (
	"strconv"
	"strings"
)

type Type string

type Token struct {
	Type  Type
	Text  string
	Start int // Byte offset of the token in the input
	Line  int
}

// End offset of the token in the input
func (t *Token) End() int {
	return t.Start + len(t.Text)
}

func (t *Token) String() string {
	s := new(strings.Builder)
	s.WriteString(string(t.Type))
	if t.Text != "" && t.Text != string(t.Type) {
		s.WriteString(":")
		s.WriteString(strconv.Quote(t.Text))
	}
	return s.String()
}

const (
	EOF              Type = "eof"
	Error            Type = "error"
	LessThan         Type = "<"  // <
	GreaterThan      Type = ">"  // >
	LessThanSlash    Type = "</" // </
	SlashGreaterThan Type = "/>" // />

	Doctype Type = "<!doctype" // <!doctype ...>
	Comment Type = "comment"   // <!-- ... -->

	Equal Type = "=" // =

	Identifier Type = "identifier" // Tag name
	Attribute  Type = "attribute"  // Attribute or directive name

	Text    Type = "text"    // Raw text
	RawText Type = "rawtext" // Contents of a raw text container
	Quote   Type = "quote"   // " or '
	Value   Type = "value"   // Attribute value

	OpenMustache  Type = "{{" // {{
	CloseMustache Type = "}}" // }}
	Expr          Type = "expr"
)
