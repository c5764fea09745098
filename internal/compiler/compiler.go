package compiler

import (
	"fmt"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/parser"
	"github.com/livebud/sfcmod/internal/template"
)

// Options for compiling a template
type Options struct {
	Source   string
	Filename string
}

// Result of compiling a template. Errors are problems the compiler could
// recover from.
type Result struct {
	AST    *ast.Root
	Errors []error
}

// Compile a template into a tree that transformations can edit and the
// stringifier can print back out
func Compile(options Options) (*Result, error) {
	p := parser.New(options.Filename, options.Source)
	root, err := p.Parse()
	if err != nil {
		return nil, err
	}
	c := &compiler{
		path:   options.Filename,
		root:   root,
		errors: p.Errors(),
		assets: map[string]string{},
	}
	root.Children = c.transformChildren(root, root.Children, newScope(), false)
	return &Result{
		AST:    root,
		Errors: c.errors,
	}, nil
}

type compiler struct {
	path   string
	root   *ast.Root
	errors []error
	assets map[string]string // path -> import name
}

func (c *compiler) errorf(loc ast.Loc, format string, args ...interface{}) {
	c.errors = append(c.errors, fmt.Errorf("compiler: %s: %s (%d:%d)", c.path, fmt.Sprintf(format, args...), loc.Start.Line, loc.Start.Column))
}

func (c *compiler) transformChildren(parent ast.Node, children []ast.Child, sc *scope, pre bool) []ast.Child {
	children = condense(children, pre)
	var out []ast.Child
	for i := 0; i < len(children); i++ {
		switch n := children[i].(type) {
		case *ast.Element:
			if dir := takeDirective(n, "if"); dir != nil {
				node, last := c.transformIf(n, dir, children, i, sc, pre)
				out = append(out, node)
				i = last
				continue
			}
			if dir := findDirective(n, "else-if", "else"); dir != nil {
				c.errorf(dir.Loc, "v-%s has no adjacent v-if or v-else-if", dir.Name)
			}
			out = append(out, c.transformElement(n, sc, pre))
		case *ast.Interpolation:
			n.Content = c.prefix(n.Content, sc)
			out = append(out, n)
		default:
			out = append(out, n)
		}
	}
	return mergeText(parent, out)
}

// transformIf turns a v-if element and its v-else-if and v-else siblings into
// a single If node. It returns the index of the last sibling it consumed.
func (c *compiler) transformIf(el *ast.Element, dir *ast.Directive, siblings []ast.Child, index int, sc *scope, pre bool) (*ast.If, int) {
	node := &ast.If{Loc: el.Loc}
	node.Branches = append(node.Branches, c.createBranch(el, dir, sc, pre))
	last := index
	var comments []*ast.Comment
loop:
	for j := index + 1; j < len(siblings); j++ {
		switch sib := siblings[j].(type) {
		case *ast.Comment:
			comments = append(comments, sib)
		case *ast.Text:
			if strings.TrimSpace(sib.Content) != "" {
				break loop
			}
		case *ast.Element:
			dir := takeDirective(sib, "else-if", "else")
			if dir == nil {
				break loop
			}
			branch := c.createBranch(sib, dir, sc, pre)
			branch.Comments = comments
			comments = nil
			node.Branches = append(node.Branches, branch)
			last = j
			if dir.Name == "else" {
				break loop
			}
		default:
			break loop
		}
	}
	return node, last
}

func (c *compiler) createBranch(el *ast.Element, dir *ast.Directive, sc *scope, pre bool) *ast.IfBranch {
	branch := &ast.IfBranch{
		IsTemplateIf: el.Tag == "template" && el.TagType == ast.ElementTemplate,
		UserKey:      findKey(el),
		Loc:          el.Loc,
	}
	if dir.Name != "else" {
		if dir.Exp == nil {
			c.errorf(dir.Loc, "v-%s is missing expression", dir.Name)
		} else {
			dir.Exp = c.prefix(dir.Exp, sc)
			branch.Condition = dir.Exp
		}
	}
	branch.Children = []ast.Child{c.transformElement(el, sc, pre)}
	return branch
}

func (c *compiler) transformElement(el *ast.Element, sc *scope, pre bool) ast.Child {
	if dir := takeDirective(el, "for"); dir != nil {
		return c.transformFor(el, dir, sc, pre)
	}
	c.transformElementBody(el, sc, pre)
	return el
}

func (c *compiler) transformElementBody(el *ast.Element, sc *scope, pre bool) {
	inner := sc
	if slot := findDirective(el, "slot"); slot != nil && slot.Exp != nil {
		inner = sc.With(bindingNames(slot.Exp)...)
	}
	c.transformProps(el, sc)
	if dir := findDirective(el, "text", "html"); dir != nil && len(el.Children) > 0 {
		c.errorf(dir.Loc, "v-%s will override element children", dir.Name)
		el.Children = nil
	}
	pre = pre || el.Tag == "pre"
	if isTransition(el) {
		el.Children = removeComments(condense(el.Children, pre))
	}
	el.Children = c.transformChildren(el, el.Children, inner, pre)
	if isTransition(el) {
		addPersisted(el)
	}
}

func (c *compiler) transformProps(el *ast.Element, sc *scope) {
	for i, prop := range el.Props {
		switch p := prop.(type) {
		case *ast.Attribute:
			if dir := c.transformAssetURL(el, p); dir != nil {
				el.Props[i] = dir
			}
		case *ast.Directive:
			if p.Arg != nil {
				p.Arg = c.prefix(p.Arg, sc)
			}
			switch p.Name {
			case "slot", "for":
				// Patterns, not expressions
			case "on":
				c.transformOn(p, sc)
			default:
				if p.Exp != nil {
					p.Exp = c.prefix(p.Exp, sc)
				}
			}
		}
	}
}

// transformFor builds the For node and picks the element that owns the
// v-for directive. Loops over a <template> get a synthetic wrapper.
func (c *compiler) transformFor(el *ast.Element, dir *ast.Directive, sc *scope, pre bool) ast.Child {
	if dir.Exp == nil {
		c.errorf(dir.Loc, "v-for is missing expression")
		el.Props = append(el.Props, dir)
		c.transformElementBody(el, sc, pre)
		return el
	}
	result, ok := parseFor(dir.Exp)
	if !ok {
		c.errorf(dir.Loc, "v-for has invalid expression: %s", dir.Exp.Location().Source)
		el.Props = append(el.Props, dir)
		c.transformElementBody(el, sc, pre)
		return el
	}
	var aliases []string
	for _, alias := range []ast.Expression{result.Value, result.Key, result.Index} {
		if alias != nil {
			aliases = append(aliases, bindingNames(alias)...)
		}
	}
	result.Source = c.prefix(result.Source, sc)
	dir.ForParseResult = result
	inner := sc.With(aliases...)
	c.transformElementBody(el, inner, pre)

	node := &ast.For{
		Source:      result.Source,
		ValueAlias:  result.Value,
		KeyAlias:    result.Key,
		IndexAlias:  result.Index,
		ParseResult: result,
		Loc:         el.Loc,
	}
	vfor, err := template.CreateVForDirectiveFrom(result)
	if err != nil {
		c.errors = append(c.errors, err)
		el.Props = append(el.Props, dir)
		return el
	}
	if el.Tag != "template" || el.TagType != ast.ElementTemplate {
		if err := template.InsertProp(el, "for", vfor); err != nil {
			c.errors = append(c.errors, err)
			el.Props = append(el.Props, vfor)
		}
		node.Meta = &ast.ForMeta{Element: el}
		return node
	}

	// The key moves into the props passed to each iteration
	wrapper := template.CreateTemplate(template.ElementOptions{
		Tag:         "template",
		Props:       []ast.Prop{vfor},
		Children:    el.Children,
		SelfClosing: &el.SelfClosing,
	})
	codegen := &ast.ObjectExpression{Loc: el.Loc}
	for _, prop := range el.Props {
		if property := keyProperty(prop); property != nil {
			codegen.Properties = append(codegen.Properties, property)
			continue
		}
		wrapper.Props = append(wrapper.Props, prop)
	}
	if len(codegen.Properties) > 0 {
		node.CodegenProps = codegen
	}
	node.Meta = &ast.ForMeta{Element: wrapper, IsTemplateFor: true}
	return node
}

// transformOn guards member path handlers so calling them passes the event
// arguments through
func (c *compiler) transformOn(dir *ast.Directive, sc *scope) {
	simple, ok := dir.Exp.(*ast.SimpleExpression)
	if !ok {
		return
	}
	content := strings.TrimSpace(simple.Content)
	if memberPath.MatchString(content) {
		root := content
		if i := strings.IndexAny(content, ".[?"); i > 0 {
			root = content[:i]
		}
		if sc.Prefixes(root) {
			simple.Content = "_ctx." + content + " && _ctx." + content + "(...args)"
		}
		return
	}
	dir.Exp = c.prefix(simple, sc.With("$event", "arguments"))
}

var assetTags = map[string][]string{
	"img":    {"src"},
	"video":  {"src", "poster"},
	"source": {"src"},
	"image":  {"xlink:href", "href"},
	"use":    {"xlink:href", "href"},
}

// transformAssetURL hoists relative asset urls into imports on the root
func (c *compiler) transformAssetURL(el *ast.Element, attr *ast.Attribute) *ast.Directive {
	if attr.Value == nil || attr.Value.Content == "" {
		return nil
	}
	found := false
	for _, name := range assetTags[el.Tag] {
		if attr.Name == name {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	path := attr.Value.Content
	switch path[0] {
	case '.', '~', '@':
	default:
		return nil
	}
	name, ok := c.assets[path]
	if !ok {
		name = fmt.Sprintf("_imports_%d", len(c.root.Imports))
		c.assets[path] = name
		c.root.Imports = append(c.root.Imports, &ast.Import{
			Exp: &ast.SimpleExpression{
				Content:   name,
				ConstType: ast.CanStringify,
			},
			Path: path,
		})
	}
	return &ast.Directive{
		Name:    "bind",
		RawName: attr.Name,
		Arg: &ast.SimpleExpression{
			Content:   attr.Name,
			IsStatic:  true,
			ConstType: ast.CanStringify,
			Loc:       attr.NameLoc,
		},
		Exp: &ast.SimpleExpression{
			Content:   name,
			ConstType: ast.CanStringify,
			Loc:       attr.Value.Loc,
		},
		Loc: attr.Loc,
	}
}

func isTransition(el *ast.Element) bool {
	return el.Tag == "transition" || el.Tag == "Transition"
}

func removeComments(children []ast.Child) []ast.Child {
	out := children[:0]
	for _, child := range children {
		if _, ok := child.(*ast.Comment); ok {
			continue
		}
		out = append(out, child)
	}
	return out
}

// addPersisted marks a transition around a single v-show element the way the
// runtime compiler does
func addPersisted(el *ast.Element) {
	var only *ast.Element
	for _, child := range el.Children {
		switch n := child.(type) {
		case *ast.Comment:
			continue
		case *ast.Element:
			if only != nil {
				return
			}
			only = n
		default:
			return
		}
	}
	if only == nil || findDirective(only, "show") == nil {
		return
	}
	el.Props = append(el.Props, &ast.Attribute{
		Name:    "persisted",
		NameLoc: el.Loc,
		Loc:     el.Loc,
	})
}

// takeDirective removes and returns the first directive with one of the names
func takeDirective(el *ast.Element, names ...string) *ast.Directive {
	for i, prop := range el.Props {
		dir, ok := prop.(*ast.Directive)
		if !ok {
			continue
		}
		for _, name := range names {
			if dir.Name == name {
				el.Props = append(el.Props[:i:i], el.Props[i+1:]...)
				return dir
			}
		}
	}
	return nil
}

func findDirective(el *ast.Element, names ...string) *ast.Directive {
	for _, prop := range el.Props {
		dir, ok := prop.(*ast.Directive)
		if !ok {
			continue
		}
		for _, name := range names {
			if dir.Name == name {
				return dir
			}
		}
	}
	return nil
}

// findKey returns the key attribute or :key binding
func findKey(el *ast.Element) ast.Prop {
	for _, prop := range el.Props {
		if isKey(prop) {
			return prop
		}
	}
	return nil
}

func isKey(prop ast.Prop) bool {
	switch p := prop.(type) {
	case *ast.Attribute:
		return p.Name == "key"
	case *ast.Directive:
		arg, ok := p.Arg.(*ast.SimpleExpression)
		return p.Name == "bind" && ok && arg.IsStatic && arg.Content == "key"
	}
	return false
}

func keyProperty(prop ast.Prop) *ast.Property {
	if !isKey(prop) {
		return nil
	}
	key := &ast.SimpleExpression{
		Content:   "key",
		IsStatic:  true,
		ConstType: ast.CanStringify,
	}
	switch p := prop.(type) {
	case *ast.Attribute:
		value := &ast.SimpleExpression{IsStatic: true, ConstType: ast.CanStringify}
		if p.Value != nil {
			value.Content = p.Value.Content
			value.Loc = p.Value.Loc
		}
		return &ast.Property{Key: key, Value: value, Loc: p.Loc}
	case *ast.Directive:
		if p.Exp == nil {
			return nil
		}
		return &ast.Property{Key: key, Value: p.Exp, Loc: p.Loc}
	}
	return nil
}
