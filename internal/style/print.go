package style

import (
	"strings"
)

// raws are the formatting defaults for nodes that weren't parsed, inferred
// from the parsed nodes of the same stylesheet
type raws struct {
	indent        string
	beforeDecl    string
	beforeRule    string
	beforeComment string
	beforeClose   string
	beforeOpen    string
	colon         string
	semicolon     bool
}

var defaultRaws = raws{
	indent:        "    ",
	beforeDecl:    "\n",
	beforeRule:    "\n",
	beforeComment: "\n",
	beforeClose:   "\n",
	beforeOpen:    " ",
	colon:         ": ",
}

func rootOf(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// depth counts the containers between the node and the root
func depth(n Node) (d int) {
	for p := n.Parent(); p != nil && p.Type() != "root"; p = p.Parent() {
		d++
	}
	return d
}

// stripIndent removes the indentation after the last newline
func stripIndent(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[:i+1]
	}
	return s
}

func infer(root Node) raws {
	r := defaultRaws
	tree, ok := root.(Container)
	if !ok {
		return r
	}
	var found struct{ indent, decl, rule, comment, close, open, colon, semicolon bool }
	tree.Walk(func(n Node) {
		b := n.base()
		if !b.parsed {
			return
		}
		parent := n.Parent()
		if !found.indent && parent != nil && parent.Type() != "root" && parent.Parent() != nil && parent.Parent().Type() == "root" {
			if i := strings.LastIndexByte(b.Before, '\n'); i >= 0 {
				found.indent = true
				r.indent = strings.Trim(b.Before[i+1:], ";")
			}
		}
		switch n := n.(type) {
		case *Decl:
			if !found.decl && strings.Contains(b.Before, "\n") {
				found.decl = true
				r.beforeDecl = stripIndent(b.Before)
			}
			if !found.colon && n.Between != "" {
				found.colon = true
				r.colon = strings.Map(func(ch rune) rune {
					if ch == ':' || ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
						return ch
					}
					return -1
				}, n.Between)
			}
		case *Comment:
			if !found.comment && strings.Contains(b.Before, "\n") {
				found.comment = true
				r.beforeComment = stripIndent(b.Before)
			}
		case Container:
			c := n.box()
			isFirst := parent != nil && parent.Type() == "root" && parent.Nodes()[0] == n
			if !found.rule && !isFirst && strings.Contains(b.Before, "\n") {
				found.rule = true
				r.beforeRule = stripIndent(b.Before)
			}
			if !found.close && len(c.nodes) > 0 && strings.Contains(c.After, "\n") {
				found.close = true
				r.beforeClose = stripIndent(c.After)
			}
			if !found.semicolon && len(c.nodes) > 0 {
				if _, ok := c.nodes[len(c.nodes)-1].(*Decl); ok {
					found.semicolon = true
					r.semicolon = c.Semicolon
				}
			}
			if rule, ok := n.(*Rule); ok && !found.open && rule.Between != "" {
				found.open = true
				r.beforeOpen = rule.Between
			}
		}
	})
	return r
}

type printer struct {
	sb   strings.Builder
	raws raws
}

func stringify(n Node) string {
	p := &printer{raws: infer(rootOf(n))}
	p.node(n)
	return p.sb.String()
}

func (p *printer) before(n Node) string {
	b := n.base()
	if b.parsed || b.Before != "" {
		return b.Before
	}
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	if parent.Type() == "root" && parent.Nodes()[0] == n {
		return ""
	}
	var before string
	switch n.(type) {
	case *Decl:
		before = p.raws.beforeDecl
	case *Comment:
		before = p.raws.beforeComment
	default:
		before = p.raws.beforeRule
	}
	return p.indent(before, depth(n))
}

func (p *printer) indent(s string, depth int) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return s + strings.Repeat(p.raws.indent, depth)
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *Root:
		p.body(n)
		p.sb.WriteString(n.After)
	case *Rule:
		p.sb.WriteString(n.Selector)
		if n.parsed || n.Between != "" {
			p.sb.WriteString(n.Between)
		} else {
			p.sb.WriteString(p.raws.beforeOpen)
		}
		p.block(n, &n.node, &n.container)
	case *AtRule:
		p.sb.WriteString("@")
		p.sb.WriteString(n.Name)
		switch {
		case n.parsed || n.AfterName != "":
			p.sb.WriteString(n.AfterName)
		case n.Params != "":
			p.sb.WriteString(" ")
		}
		p.sb.WriteString(n.Params)
		if !n.Block {
			p.sb.WriteString(n.Between)
			return
		}
		if n.parsed || n.Between != "" {
			p.sb.WriteString(n.Between)
		} else {
			p.sb.WriteString(p.raws.beforeOpen)
		}
		p.block(n, &n.node, &n.container)
	case *Decl:
		p.sb.WriteString(n.Prop)
		if n.parsed || n.Between != "" {
			p.sb.WriteString(n.Between)
		} else {
			p.sb.WriteString(p.raws.colon)
		}
		p.sb.WriteString(n.Value)
		if n.Important {
			if n.ImportantRaw != "" {
				p.sb.WriteString(n.ImportantRaw)
			} else {
				p.sb.WriteString(" !important")
			}
		}
		p.sb.WriteString(n.AfterValue)
	case *Comment:
		left, right := n.Left, n.Right
		if !n.parsed && left == "" && right == "" {
			left, right = " ", " "
		}
		if n.Inline {
			p.sb.WriteString("//" + left + n.Text + right)
			return
		}
		p.sb.WriteString("/*" + left + n.Text + right + "*/")
	}
}

func (p *printer) block(n Container, b *node, c *container) {
	p.sb.WriteString("{")
	p.body(n)
	switch {
	case b.parsed || c.After != "":
		p.sb.WriteString(c.After)
	case len(c.nodes) > 0:
		p.sb.WriteString(p.indent(p.raws.beforeClose, depth(n)))
	}
	p.sb.WriteString("}")
}

func (p *printer) body(n Container) {
	c := n.box()
	last := len(c.nodes) - 1
	for last > 0 {
		if _, ok := c.nodes[last].(*Comment); !ok {
			break
		}
		last--
	}
	semicolon := c.Semicolon
	if !n.base().parsed && n.Type() != "root" {
		semicolon = semicolon || p.raws.semicolon
	}
	for i, child := range c.nodes {
		p.sb.WriteString(p.before(child))
		p.node(child)
		if terminated(child) && (i != last || semicolon) {
			p.sb.WriteString(";")
		}
	}
}

// terminated nodes are followed by a semicolon
func terminated(n Node) bool {
	switch n := n.(type) {
	case *Decl:
		return true
	case *AtRule:
		return !n.Block
	}
	return false
}
