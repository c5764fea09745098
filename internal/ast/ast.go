package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Position in the template source. Lines and columns start at 1. Generated
// nodes have a zero position.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Loc is the source location of a node
type Loc struct {
	Start  Position
	End    Position
	Source string
}

// IsZero is true for locations of synthesized nodes
func (l Loc) IsZero() bool {
	return l.Start.Line == 0 && l.End.Line == 0 && l.Source == ""
}

type Node interface {
	Location() Loc
	print(indent string) string
}

var (
	_ Node = (*Root)(nil)
	_ Node = (*Element)(nil)
	_ Node = (*Text)(nil)
	_ Node = (*Comment)(nil)
	_ Node = (*Interpolation)(nil)
	_ Node = (*If)(nil)
	_ Node = (*IfBranch)(nil)
	_ Node = (*For)(nil)
	_ Node = (*TextCall)(nil)
	_ Node = (*Attribute)(nil)
	_ Node = (*Directive)(nil)
	_ Node = (*SimpleExpression)(nil)
	_ Node = (*CompoundExpression)(nil)
	_ Node = (*ObjectExpression)(nil)
	_ Node = (*Property)(nil)
)

// Child is a node that can appear in a children list
type Child interface {
	Node
	child()
}

var (
	_ Child = (*Element)(nil)
	_ Child = (*Text)(nil)
	_ Child = (*Comment)(nil)
	_ Child = (*Interpolation)(nil)
	_ Child = (*If)(nil)
	_ Child = (*For)(nil)
	_ Child = (*TextCall)(nil)
	_ Child = (*SimpleExpression)(nil)
	_ Child = (*CompoundExpression)(nil)
)

// Prop is an attribute or a directive attached to an element
type Prop interface {
	Node
	prop()
	PropName() string
}

var (
	_ Prop = (*Attribute)(nil)
	_ Prop = (*Directive)(nil)
)

// Expression is a simple or a compound expression
type Expression interface {
	Node
	expression()
}

var (
	_ Expression = (*SimpleExpression)(nil)
	_ Expression = (*CompoundExpression)(nil)
)

// Part of a compound expression. Either a Str or one of the nodes the compiler
// fuses together.
type Part interface {
	part()
}

var (
	_ Part = Str("")
	_ Part = (*SimpleExpression)(nil)
	_ Part = (*CompoundExpression)(nil)
	_ Part = (*Text)(nil)
	_ Part = (*Interpolation)(nil)
)

// Str is a literal piece of a compound expression
type Str string

func (Str) part() {}

type Root struct {
	Children []Child
	Imports  []*Import
	Loc      Loc
}

func (r *Root) Location() Loc { return r.Loc }

func (r *Root) String() string {
	return r.print("")
}

func (r *Root) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "Root")
	for _, child := range r.Children {
		out.WriteByte('\n')
		out.WriteString(child.print(indent + "  "))
	}
	return out.String()
}

// Import is an asset url hoisted out of the template by the compiler
type Import struct {
	Exp  Expression
	Path string
}

type ElementType int8

const (
	ElementPlain ElementType = iota
	ElementComponent
	ElementSlot
	ElementTemplate
)

func (t ElementType) String() string {
	switch t {
	case ElementComponent:
		return "component"
	case ElementSlot:
		return "slot"
	case ElementTemplate:
		return "template"
	default:
		return "element"
	}
}

type Element struct {
	Tag         string
	TagType     ElementType
	Props       []Prop
	Children    []Child
	SelfClosing bool
	Loc         Loc
}

func (e *Element) Location() Loc { return e.Loc }
func (e *Element) child()        {}

func (e *Element) print(indent string) string {
	out := new(strings.Builder)
	fmt.Fprintf(out, "%sElement(%s %s", indent, e.TagType, e.Tag)
	if e.SelfClosing {
		out.WriteString(" selfclosing")
	}
	out.WriteString(")")
	for _, prop := range e.Props {
		out.WriteByte('\n')
		out.WriteString(prop.print(indent + "  "))
	}
	for _, child := range e.Children {
		out.WriteByte('\n')
		out.WriteString(child.print(indent + "  "))
	}
	return out.String()
}

type Text struct {
	Content string
	Loc     Loc
}

func (t *Text) Location() Loc { return t.Loc }
func (t *Text) child()        {}
func (t *Text) part()         {}

func (t *Text) print(indent string) string {
	return indent + "Text(" + strconv.Quote(t.Content) + ")"
}

type Comment struct {
	Content string
	Loc     Loc
}

func (c *Comment) Location() Loc { return c.Loc }
func (c *Comment) child()        {}

func (c *Comment) print(indent string) string {
	return indent + "Comment(" + strconv.Quote(c.Content) + ")"
}

type Interpolation struct {
	Content Expression
	Loc     Loc
}

func (i *Interpolation) Location() Loc { return i.Loc }
func (i *Interpolation) child()        {}
func (i *Interpolation) part()         {}

func (i *Interpolation) print(indent string) string {
	return indent + "Interpolation\n" + i.Content.print(indent+"  ")
}

// If is a chain of v-if, v-else-if and v-else branches
type If struct {
	Branches []*IfBranch
	Loc      Loc
}

func (i *If) Location() Loc { return i.Loc }
func (i *If) child()        {}

func (i *If) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "If")
	for _, branch := range i.Branches {
		out.WriteByte('\n')
		out.WriteString(branch.print(indent + "  "))
	}
	return out.String()
}

type IfBranch struct {
	Condition Expression // nil for v-else
	Children  []Child
	UserKey   Prop
	// Comments found between this branch and the previous one
	Comments     []*Comment
	IsTemplateIf bool
	Loc          Loc
}

func (b *IfBranch) Location() Loc { return b.Loc }

func (b *IfBranch) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "IfBranch")
	if b.IsTemplateIf {
		out.WriteString("(template)")
	}
	if b.Condition != nil {
		out.WriteByte('\n')
		out.WriteString(b.Condition.print(indent + "  condition: "))
	}
	for _, child := range b.Children {
		out.WriteByte('\n')
		out.WriteString(child.print(indent + "  "))
	}
	return out.String()
}

// ForParseResult holds the parts of a v-for expression
type ForParseResult struct {
	Source Expression
	Value  Expression
	Key    Expression
	Index  Expression
}

// ForMeta tracks the element that owns the loop's directive
type ForMeta struct {
	Element *Element
	// IsTemplateFor is true when Element is a synthetic <template> wrapper
	IsTemplateFor bool
}

type For struct {
	Source      Expression
	ValueAlias  Expression
	KeyAlias    Expression
	IndexAlias  Expression
	ParseResult *ForParseResult
	Children    []Child
	Meta        *ForMeta
	// CodegenProps are the props the generated code passes to each iteration
	// when the loop decorates a <template>
	CodegenProps *ObjectExpression
	Loc          Loc
}

func (f *For) Location() Loc { return f.Loc }
func (f *For) child()        {}

func (f *For) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "For")
	if f.Meta != nil && f.Meta.IsTemplateFor {
		out.WriteString("(template)")
	}
	if f.Source != nil {
		out.WriteByte('\n')
		out.WriteString(f.Source.print(indent + "  source: "))
	}
	if f.Meta != nil && f.Meta.Element != nil {
		out.WriteByte('\n')
		out.WriteString(f.Meta.Element.print(indent + "  "))
	}
	for _, child := range f.Children {
		out.WriteByte('\n')
		out.WriteString(child.print(indent + "  "))
	}
	return out.String()
}

// TextCall wraps text that sits next to other children
type TextCall struct {
	Content Child // Text, Interpolation or CompoundExpression
	Loc     Loc
}

func (t *TextCall) Location() Loc { return t.Loc }
func (t *TextCall) child()        {}

func (t *TextCall) print(indent string) string {
	return indent + "TextCall\n" + t.Content.print(indent+"  ")
}

type Attribute struct {
	Name    string
	Value   *Text // nil for boolean attributes
	NameLoc Loc
	Loc     Loc
}

func (a *Attribute) Location() Loc    { return a.Loc }
func (a *Attribute) prop()            {}
func (a *Attribute) PropName() string { return a.Name }

func (a *Attribute) print(indent string) string {
	if a.Value == nil {
		return indent + "Attribute(" + a.Name + ")"
	}
	return indent + "Attribute(" + a.Name + "=" + strconv.Quote(a.Value.Content) + ")"
}

// DirectiveMeta holds reprint hints that the compiler tree doesn't carry
type DirectiveMeta struct {
	Shorthand bool
	For       *ForParseResult
}

type Directive struct {
	Name      string // Normalized name without prefix, e.g. "bind"
	RawName   string // Name as written in the source, e.g. ":foo.prop"
	Arg       Expression
	Exp       Expression
	Modifiers []*SimpleExpression
	// ForParseResult is set by the compiler on v-for directives
	ForParseResult *ForParseResult
	Meta           DirectiveMeta
	Loc            Loc
}

func (d *Directive) Location() Loc    { return d.Loc }
func (d *Directive) prop()            {}
func (d *Directive) PropName() string { return d.Name }

func (d *Directive) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "Directive(" + d.Name)
	for _, mod := range d.Modifiers {
		out.WriteString("." + mod.Content)
	}
	out.WriteString(")")
	if d.Arg != nil {
		out.WriteByte('\n')
		out.WriteString(d.Arg.print(indent + "  arg: "))
	}
	if d.Exp != nil {
		out.WriteByte('\n')
		out.WriteString(d.Exp.print(indent + "  exp: "))
	}
	return out.String()
}

// ConstType mirrors how constant an expression is
type ConstType int8

const (
	NotConstant ConstType = iota
	CanSkipPatch
	CanHoist
	CanStringify
)

type SimpleExpression struct {
	Content   string
	IsStatic  bool
	ConstType ConstType
	Loc       Loc
}

func (s *SimpleExpression) Location() Loc { return s.Loc }
func (s *SimpleExpression) child()        {}
func (s *SimpleExpression) part()         {}
func (s *SimpleExpression) expression()   {}

func (s *SimpleExpression) print(indent string) string {
	return indent + "SimpleExpression(" + strconv.Quote(s.Content) + ")"
}

type CompoundExpression struct {
	Children []Part
	Loc      Loc
}

func (c *CompoundExpression) Location() Loc { return c.Loc }
func (c *CompoundExpression) child()        {}
func (c *CompoundExpression) part()         {}
func (c *CompoundExpression) expression()   {}

func (c *CompoundExpression) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "CompoundExpression")
	for _, part := range c.Children {
		out.WriteByte('\n')
		switch p := part.(type) {
		case Str:
			out.WriteString(indent + "  " + strconv.Quote(string(p)))
		case Node:
			out.WriteString(p.print(indent + "  "))
		}
	}
	return out.String()
}

// ObjectExpression is codegen side data, a props object passed to a vnode
type ObjectExpression struct {
	Properties []*Property
	Loc        Loc
}

func (o *ObjectExpression) Location() Loc { return o.Loc }

func (o *ObjectExpression) print(indent string) string {
	out := new(strings.Builder)
	out.WriteString(indent + "ObjectExpression")
	for _, prop := range o.Properties {
		out.WriteByte('\n')
		out.WriteString(prop.print(indent + "  "))
	}
	return out.String()
}

type Property struct {
	Key   Expression
	Value Expression
	Loc   Loc
}

func (p *Property) Location() Loc { return p.Loc }

func (p *Property) print(indent string) string {
	return indent + "Property\n" + p.Key.print(indent+"  key: ") + "\n" + p.Value.print(indent+"  value: ")
}

// Print a node for debugging
func Print(node Node) string {
	if node == nil {
		return "<nil>"
	}
	return node.print("")
}
