// Package style is the stylesheet tree handed to style transformations. It
// follows the shape of postcss: containers hold rules, at-rules,
// declarations and comments, and every node keeps the raw whitespace around
// it so that an untouched tree prints back exactly as it was parsed.
package style

import (
	"fmt"
	"strings"
)

// Node in a stylesheet
type Node interface {
	// Type is root, rule, atrule, decl or comment
	Type() string
	Parent() Container
	// Remove the node from its parent
	Remove()
	String() string
	base() *node
}

// Container is a node with children
type Container interface {
	Node
	Nodes() []Node
	Append(nodes ...Node)
	Prepend(nodes ...Node)
	InsertBefore(existing Node, nodes ...Node) error
	InsertAfter(existing Node, nodes ...Node) error
	RemoveChild(child Node)
	Walk(fn func(Node))
	WalkRules(selector string, fn func(*Rule))
	WalkAtRules(name string, fn func(*AtRule))
	WalkDecls(prop string, fn func(*Decl))
	WalkComments(fn func(*Comment))
	box() *container
}

var (
	_ Container = (*Root)(nil)
	_ Container = (*Rule)(nil)
	_ Container = (*AtRule)(nil)
	_ Node      = (*Decl)(nil)
	_ Node      = (*Comment)(nil)
)

type node struct {
	parent Container
	// parsed nodes have their raws set, the others fall back to defaults
	parsed bool
	// Before is the whitespace and stray text before the node
	Before string
}

func (n *node) base() *node       { return n }
func (n *node) Parent() Container { return n.parent }

type container struct {
	self  Container
	nodes []Node
	// After is the whitespace before the closing brace or the end of the
	// root
	After string
	// Semicolon is true when the last declaration has a semicolon
	Semicolon bool
}

func (c *container) box() *container { return c }

// Nodes returns the children
func (c *container) Nodes() []Node {
	return c.nodes
}

func (c *container) adopt(nodes []Node) {
	for _, n := range nodes {
		if parent := n.Parent(); parent != nil {
			parent.RemoveChild(n)
		}
		n.base().parent = c.self
	}
}

// Append nodes to the end of the container
func (c *container) Append(nodes ...Node) {
	c.adopt(nodes)
	if _, ok := c.self.(*Root); ok && len(c.nodes) > 1 {
		// New root nodes are spaced like the last one
		sample := c.nodes[len(c.nodes)-1].base()
		for _, n := range nodes {
			if !n.base().parsed && n.base().Before == "" {
				n.base().Before = sample.Before
			}
		}
	}
	c.nodes = append(c.nodes, nodes...)
}

// Prepend nodes to the start of the container
func (c *container) Prepend(nodes ...Node) {
	c.adopt(nodes)
	if _, ok := c.self.(*Root); ok && len(c.nodes) > 0 {
		// New nodes take the spacing of the old first node, which moves down
		// and is spaced like its new siblings
		first := c.nodes[0].base()
		if first.parsed || first.Before != "" {
			for _, n := range nodes {
				if b := n.base(); !b.parsed && b.Before == "" {
					b.Before = whitespace(first.Before)
				}
			}
		}
		switch {
		case len(c.nodes) > 1:
			first.Before = c.nodes[1].base().Before
		default:
			first.Before = "\n"
		}
	}
	c.nodes = append(append([]Node{}, nodes...), c.nodes...)
}

func (c *container) index(child Node) int {
	for i, n := range c.nodes {
		if n == child {
			return i
		}
	}
	return -1
}

// InsertBefore inserts nodes before an existing child
func (c *container) InsertBefore(existing Node, nodes ...Node) error {
	if c.index(existing) < 0 {
		return fmt.Errorf("style: %s is not a child", existing.Type())
	}
	c.adopt(nodes)
	i := c.index(existing)
	c.nodes = append(c.nodes[:i], append(append([]Node{}, nodes...), c.nodes[i:]...)...)
	return nil
}

// InsertAfter inserts nodes after an existing child
func (c *container) InsertAfter(existing Node, nodes ...Node) error {
	if c.index(existing) < 0 {
		return fmt.Errorf("style: %s is not a child", existing.Type())
	}
	c.adopt(nodes)
	i := c.index(existing) + 1
	c.nodes = append(c.nodes[:i], append(append([]Node{}, nodes...), c.nodes[i:]...)...)
	return nil
}

// RemoveChild removes a child from the container
func (c *container) RemoveChild(child Node) {
	i := c.index(child)
	if i < 0 {
		return
	}
	c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
	child.base().parent = nil
}

// Walk every descendant depth-first. Children may be removed or replaced
// while walking.
func (c *container) Walk(fn func(Node)) {
	for _, n := range append([]Node{}, c.nodes...) {
		fn(n)
		if child, ok := n.(Container); ok {
			child.Walk(fn)
		}
	}
}

// WalkRules walks rules matching the selector, or every rule when the
// selector is empty
func (c *container) WalkRules(selector string, fn func(*Rule)) {
	c.Walk(func(n Node) {
		if rule, ok := n.(*Rule); ok && (selector == "" || rule.Selector == selector) {
			fn(rule)
		}
	})
}

// WalkAtRules walks at-rules with the name, or every at-rule when the name is
// empty
func (c *container) WalkAtRules(name string, fn func(*AtRule)) {
	c.Walk(func(n Node) {
		if rule, ok := n.(*AtRule); ok && (name == "" || rule.Name == name) {
			fn(rule)
		}
	})
}

// WalkDecls walks declarations of the property, or every declaration when
// the property is empty
func (c *container) WalkDecls(prop string, fn func(*Decl)) {
	c.Walk(func(n Node) {
		if decl, ok := n.(*Decl); ok && (prop == "" || decl.Prop == prop) {
			fn(decl)
		}
	})
}

func (c *container) WalkComments(fn func(*Comment)) {
	c.Walk(func(n Node) {
		if comment, ok := n.(*Comment); ok {
			fn(comment)
		}
	})
}

// Root of a stylesheet
type Root struct {
	node
	container
}

// NewRoot creates an empty stylesheet
func NewRoot(nodes ...Node) *Root {
	root := &Root{}
	root.self = root
	root.Append(nodes...)
	return root
}

func (r *Root) Type() string { return "root" }
func (r *Root) Remove()      {}
func (r *Root) String() string { return stringify(r) }

// Rule is a selector with a block of children
type Rule struct {
	node
	container
	Selector string
	// Between is the whitespace between the selector and the opening brace
	Between string
}

// NewRule creates a rule
func NewRule(selector string, nodes ...Node) *Rule {
	rule := &Rule{Selector: selector}
	rule.self = rule
	rule.Append(nodes...)
	return rule
}

func (r *Rule) Type() string   { return "rule" }
func (r *Rule) Remove()        { remove(r) }
func (r *Rule) String() string { return stringify(r) }

// AtRule is an at-rule like @media or @import. Statement at-rules have nil
// nodes.
type AtRule struct {
	node
	container
	Name   string
	Params string
	// AfterName is the text between the name and the params
	AfterName string
	// Between is the text between the params and the opening brace or the
	// semicolon
	Between string
	// Block is true for at-rules with a body
	Block bool
}

// NewAtRule creates an at-rule. It has a body when nodes are given.
func NewAtRule(name, params string, nodes ...Node) *AtRule {
	rule := &AtRule{Name: name, Params: params, Block: len(nodes) > 0}
	rule.self = rule
	rule.Append(nodes...)
	return rule
}

func (a *AtRule) Type() string   { return "atrule" }
func (a *AtRule) Remove()        { remove(a) }
func (a *AtRule) String() string { return stringify(a) }

// Append to an at-rule gives it a body
func (a *AtRule) Append(nodes ...Node) {
	if len(nodes) > 0 {
		a.Block = true
	}
	a.container.Append(nodes...)
}

// Decl is a property declaration
type Decl struct {
	node
	Prop      string
	Value     string
	Important bool
	// Between is the text between the property and the value, including the
	// colon
	Between string
	// ImportantRaw is how the important flag was written
	ImportantRaw string
	// AfterValue is the whitespace between the value and the semicolon
	AfterValue string
}

// NewDecl creates a declaration
func NewDecl(prop, value string) *Decl {
	return &Decl{Prop: prop, Value: value}
}

func (d *Decl) Type() string   { return "decl" }
func (d *Decl) Remove()        { remove(d) }
func (d *Decl) String() string { return stringify(d) }

// Comment is a block comment, or a line comment in preprocessor languages
type Comment struct {
	node
	Text   string
	Inline bool
	// Left and Right are the whitespace inside the comment markers
	Left  string
	Right string
}

// NewComment creates a block comment
func NewComment(text string) *Comment {
	return &Comment{Text: text}
}

func (c *Comment) Type() string   { return "comment" }
func (c *Comment) Remove()        { remove(c) }
func (c *Comment) String() string { return stringify(c) }

// whitespace drops everything but whitespace
func whitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return r
		}
		return -1
	}, s)
}

func remove(n Node) {
	if parent := n.Parent(); parent != nil {
		parent.RemoveChild(n)
	}
}

// Selectors splits the rule selector on top-level commas
func (r *Rule) Selectors() []string {
	var selectors []string
	depth, start := 0, 0
	for i := 0; i < len(r.Selector); i++ {
		switch r.Selector[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				selectors = append(selectors, strings.TrimSpace(r.Selector[start:i]))
				start = i + 1
			}
		}
	}
	return append(selectors, strings.TrimSpace(r.Selector[start:]))
}
