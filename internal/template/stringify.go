package template

import (
	"regexp"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
	"github.com/livebud/sfcmod/internal/compound"
	"github.com/livebud/sfcmod/internal/lexer"
)

// Stringify a template tree back into markup. The tree isn't modified.
func Stringify(root *ast.Root) (string, error) {
	p := &printer{root: root}
	return p.genChildren(root.Children)
}

// StringifyNode renders a single node outside of a tree. Asset imports render
// as their import name.
func StringifyNode(node ast.Node) (string, error) {
	p := &printer{}
	return p.genNode(node)
}

// InsertProp inserts a prop for the operation (e.g. "if" for a v-if) where
// the source suggests it goes. Generated elements get the prop appended.
func InsertProp(el *ast.Element, operation string, prop ast.Prop) error {
	p := &printer{}
	return p.insertProp(el, operation, prop)
}

type printer struct {
	root *ast.Root
}

var (
	nullishCall = regexp.MustCompile(`_ctx\.([^ ]+) && _ctx\.([^(]+)\(\.\.\.args\)`)
	quotedValue = regexp.MustCompile(`="[^"]*"|='[^']*'`)
)

// clearCtx undoes the compiler's _ctx rewriting
func clearCtx(exp string) string {
	if m := nullishCall.FindStringSubmatch(exp); m != nil && m[1] == m[2] {
		return m[1]
	}
	return strings.TrimPrefix(exp, "_ctx.")
}

func (p *printer) genNode(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.Root:
		return p.genChildren(n.Children)
	case *ast.Element:
		return p.genElement(n)
	case *ast.Text:
		return genText(n), nil
	case *ast.Comment:
		return genComment(n), nil
	case *ast.Interpolation:
		return p.genInterpolation(n)
	case *ast.If:
		return p.genIf(n)
	case *ast.For:
		return p.genLoop(n)
	case *ast.TextCall:
		return p.genNode(n.Content)
	case *ast.Attribute:
		return genAttribute(n), nil
	case *ast.Directive:
		return p.genDirective(n)
	case *ast.SimpleExpression, *ast.CompoundExpression:
		return p.genExpression(n.(ast.Expression))
	}
	return "", nodeError("template: stringify", node, "unknown node %T", node)
}

func (p *printer) genChildren(children []ast.Child) (string, error) {
	if len(children) == 0 {
		return "", nil
	}
	out := make([]string, len(children))
	for i, child := range children {
		code, err := p.genNode(child)
		if err != nil {
			return "", err
		}
		out[i] = code
	}
	return "\n" + strings.Join(out, "\n") + "\n", nil
}

func genText(text *ast.Text) string {
	// Line comments in text were condensed onto one line
	if strings.HasPrefix(strings.TrimSpace(text.Content), "//") {
		return text.Content + "\n"
	}
	return text.Content
}

func genComment(comment *ast.Comment) string {
	return "<!--" + comment.Content + "-->"
}

func genAttribute(attr *ast.Attribute) string {
	if attr.Value == nil {
		return attr.Name
	}
	return attr.Name + quote(attr.Value.Content)
}

// quote a prop value, switching to single quotes when the value has double
// quotes in it
func quote(value string) string {
	if strings.Contains(value, `"`) && !strings.Contains(value, `'`) {
		return "='" + value + "'"
	}
	return `="` + value + `"`
}

func (p *printer) genInterpolation(node *ast.Interpolation) (string, error) {
	exp, err := p.genExpression(node.Content)
	if err != nil {
		return "", err
	}
	return "{{ " + exp + " }}", nil
}

func (p *printer) hasImport(exp *ast.SimpleExpression) bool {
	return strings.HasPrefix(exp.Content, "_imports_") && exp.ConstType == ast.CanStringify
}

// processImport renders the path that an asset import points to
func (p *printer) processImport(exp *ast.SimpleExpression) (string, error) {
	if p.root == nil {
		return exp.Content, nil
	}
	for _, imp := range p.root.Imports {
		simple, ok := imp.Exp.(*ast.SimpleExpression)
		if !ok {
			return "", nodeError("template: stringify import", imp.Exp, "compound import expressions are not supported")
		}
		if simple.Content == exp.Content {
			return imp.Path, nil
		}
	}
	return "", nodeError("template: stringify import", exp, "no import found for %s", exp.Content)
}

func (p *printer) genExpression(exp ast.Expression) (string, error) {
	switch e := exp.(type) {
	case *ast.SimpleExpression:
		if p.hasImport(e) {
			return p.processImport(e)
		}
		return clearCtx(e.Content), nil
	case *ast.CompoundExpression:
		return compound.Render(e), nil
	}
	return "", nodeError("template: stringify expression", exp, "unrecognised expression %T", exp)
}

func (p *printer) directivePrefix(dir *ast.Directive) string {
	if exp, ok := dir.Exp.(*ast.SimpleExpression); ok && p.hasImport(exp) {
		return ""
	}
	shorthand := ":"
	switch dir.Name {
	case "slot":
		shorthand = "#"
	case "on":
		shorthand = "@"
	}
	full := "v-" + dir.Name
	if dir.Loc.IsZero() {
		if dir.Meta.Shorthand {
			return shorthand
		}
		return full
	}
	if strings.HasPrefix(dir.Loc.Source, full) {
		return full
	}
	return shorthand
}

func (p *printer) genDirective(dir *ast.Directive) (string, error) {
	switch dir.Name {
	case "cloak", "else", "once", "pre":
		return "v-" + dir.Name, nil
	case "else-if", "html", "if", "memo", "show", "text":
		if dir.Exp == nil {
			return "", nodeError("template: stringify directive", dir, "v-%s has no expression", dir.Name)
		}
		exp, err := p.genExpression(dir.Exp)
		if err != nil {
			return "", err
		}
		return "v-" + dir.Name + quote(exp), nil
	case "for":
		return p.genFor(dir)
	}
	if dir.Loc.IsZero() && !vocabulary[dir.Name] {
		return "", nodeError("template: stringify directive", dir, "unrecognised directive name %q", dir.Name)
	}
	prefix := p.directivePrefix(dir)
	modifiers := dir.Modifiers
	// .foo is shorthand for :foo.prop
	if dir.Name == "bind" && !dir.Loc.IsZero() && strings.HasPrefix(dir.Loc.Source, ".") &&
		len(modifiers) > 0 && modifiers[len(modifiers)-1].Content == "prop" {
		prefix = "."
		modifiers = modifiers[:len(modifiers)-1]
	}
	arg := ""
	switch a := dir.Arg.(type) {
	case *ast.SimpleExpression:
		if a.IsStatic {
			arg = a.Content
			break
		}
		exp, err := p.genExpression(a)
		if err != nil {
			return "", err
		}
		arg = "[" + exp + "]"
	case *ast.CompoundExpression:
		exp, err := p.genExpression(a)
		if err != nil {
			return "", err
		}
		arg = "[" + exp + "]"
	}
	if arg != "" && len(prefix) > 1 {
		prefix += ":"
	}
	out := new(strings.Builder)
	out.WriteString(prefix)
	out.WriteString(arg)
	for _, mod := range modifiers {
		out.WriteString("." + mod.Content)
	}
	if dir.Exp != nil {
		exp, err := p.genExpression(dir.Exp)
		if err != nil {
			return "", err
		}
		out.WriteString(quote(exp))
	}
	return out.String(), nil
}

func (p *printer) genFor(dir *ast.Directive) (string, error) {
	meta := dir.Meta.For
	if meta == nil {
		meta = dir.ForParseResult
	}
	if meta == nil || meta.Source == nil {
		return "", nodeError("template: stringify directive", dir, "v-for needs loop metadata with a source")
	}
	source, err := p.genExpression(meta.Source)
	if err != nil {
		return "", err
	}
	var aliases []string
	for _, alias := range []ast.Expression{meta.Value, meta.Key, meta.Index} {
		if alias == nil {
			continue
		}
		code, err := p.genExpression(alias)
		if err != nil {
			return "", err
		}
		aliases = append(aliases, code)
	}
	switch len(aliases) {
	case 0:
		return "", nodeError("template: stringify directive", dir, "v-for needs at least one alias")
	case 1:
		return "v-for" + quote(aliases[0]+" in "+source), nil
	default:
		return "v-for" + quote("("+strings.Join(aliases, ", ")+") in "+source), nil
	}
}

func (p *printer) genProps(el *ast.Element) ([]string, error) {
	out := make([]string, 0, len(el.Props))
	for _, prop := range el.Props {
		switch pr := prop.(type) {
		case *ast.Attribute:
			out = append(out, genAttribute(pr))
		case *ast.Directive:
			code, err := p.genDirective(pr)
			if err != nil {
				return nil, err
			}
			out = append(out, code)
		default:
			return nil, nodeError("template: stringify props", el, "unknown prop %T", prop)
		}
	}
	return out, nil
}

// genVPre recovers v-pre from the opening tag since the parser doesn't keep
// it as a prop
func genVPre(el *ast.Element) []string {
	if el.Loc.Source == "" {
		return nil
	}
	if len(FindAttributes(el, AttributeQuery{Name: "v-pre"})) > 0 {
		return nil
	}
	tag := strings.TrimPrefix(el.Loc.Source, "<"+el.Tag)
	tag = quotedValue.ReplaceAllString(tag, "")
	if i := strings.IndexByte(tag, '>'); i >= 0 {
		tag = tag[:i]
	}
	for _, name := range strings.Fields(tag) {
		if strings.TrimSuffix(name, "/") == "v-pre" {
			return []string{"v-pre"}
		}
	}
	return nil
}

func isTransition(tag string) bool {
	switch tag {
	case "transition", "Transition", "transition-group", "TransitionGroup":
		return true
	}
	return false
}

// hasShowChild is true when a direct child element has v-show
func hasShowChild(el *ast.Element) bool {
	for _, child := range el.Children {
		if child, ok := child.(*ast.Element); ok && len(FindDirectivesByName(child, "show")) > 0 {
			return true
		}
	}
	return false
}

func (p *printer) genElement(el *ast.Element) (string, error) {
	if el.Tag == "" {
		return "", nodeError("template: stringify element", el, "element has no tag")
	}
	children, err := p.genChildren(el.Children)
	if err != nil {
		return "", err
	}
	props, err := p.genProps(el)
	if err != nil {
		return "", err
	}
	if isTransition(el.Tag) && hasShowChild(el) {
		kept := props[:0]
		for _, prop := range props {
			if prop != "persisted" {
				kept = append(kept, prop)
			}
		}
		props = kept
	}
	attrs := append(genVPre(el), props...)
	out := new(strings.Builder)
	out.WriteString("<" + el.Tag)
	for _, attr := range attrs {
		out.WriteString(" " + attr)
	}
	if len(el.Children) == 0 && (lexer.IsVoid(el.Tag) || el.SelfClosing) {
		out.WriteString(" />")
		return out.String(), nil
	}
	out.WriteString(">")
	out.WriteString(children)
	out.WriteString("</" + el.Tag + ">")
	return out.String(), nil
}

func (p *printer) insertProp(el *ast.Element, operation string, prop ast.Prop) error {
	if el.Loc.IsZero() {
		el.Props = append(el.Props, prop)
		return nil
	}
	props, err := p.genProps(el)
	if err != nil {
		return err
	}
	names := append(props, "v-"+operation)
	for i, name := range names {
		names[i] = strings.SplitN(name, "=", 2)[0]
	}
	order := sortByPosition(el.Loc.Source, names, true)
	at := 0
	for i, index := range order {
		if index == len(names)-1 {
			at = i
			break
		}
	}
	el.Props = append(el.Props[:at:at], append([]ast.Prop{prop}, el.Props[at:]...)...)
	return nil
}

func copyElement(el *ast.Element) *ast.Element {
	clone := *el
	clone.Props = append([]ast.Prop(nil), el.Props...)
	return &clone
}

func (p *printer) genIf(node *ast.If) (string, error) {
	var out []string
	for i, branch := range node.Branches {
		operation := "else"
		if branch.Condition != nil {
			operation = "if"
			if i > 0 {
				operation = "else-if"
			}
		}
		if len(branch.Children) == 0 {
			return "", nodeError("template: stringify if", branch, "branch has no children")
		}
		dir := &ast.Directive{Name: operation, Exp: branch.Condition}
		for _, comment := range branch.Comments {
			out = append(out, genComment(comment))
		}
		var first string
		switch child := branch.Children[0].(type) {
		case *ast.Element:
			el := copyElement(child)
			if err := p.insertProp(el, operation, dir); err != nil {
				return "", err
			}
			if branch.IsTemplateIf && branch.UserKey != nil && !hasProp(el, branch.UserKey) {
				el.Props = append(el.Props, branch.UserKey)
			}
			code, err := p.genElement(el)
			if err != nil {
				return "", err
			}
			first = code
		case *ast.For:
			if child.Meta == nil || child.Meta.Element == nil {
				return "", nodeError("template: stringify if", child, "loop is missing its element")
			}
			loop := *child
			meta := *child.Meta
			meta.Element = copyElement(child.Meta.Element)
			loop.Meta = &meta
			if err := p.insertProp(meta.Element, operation, dir); err != nil {
				return "", err
			}
			code, err := p.genLoop(&loop)
			if err != nil {
				return "", err
			}
			first = code
		default:
			return "", nodeError("template: stringify if", branch, "unsupported branch child %T", child)
		}
		out = append(out, first)
		for _, child := range branch.Children[1:] {
			code, err := p.genNode(child)
			if err != nil {
				return "", err
			}
			out = append(out, code)
		}
	}
	return strings.Join(out, "\n"), nil
}

func hasProp(el *ast.Element, prop ast.Prop) bool {
	for _, p := range el.Props {
		if p == prop {
			return true
		}
	}
	return false
}

// codegenProp turns a codegen property back into a prop
func (p *printer) codegenProp(property *ast.Property) (ast.Prop, error) {
	key, err := p.genExpression(property.Key)
	if err != nil {
		return nil, err
	}
	if value, ok := property.Value.(*ast.SimpleExpression); ok && value.IsStatic {
		return &ast.Attribute{
			Name:  key,
			Value: &ast.Text{Content: value.Content, Loc: value.Loc},
			Loc:   property.Loc,
		}, nil
	}
	return &ast.Directive{
		Name: "bind",
		Arg:  &ast.SimpleExpression{Content: key, IsStatic: true, ConstType: ast.CanStringify},
		Exp:  property.Value,
		Meta: ast.DirectiveMeta{Shorthand: true},
		Loc:  property.Loc,
	}, nil
}

// genLoop renders the element that owns the loop. Loops over a <template> get
// their props back from the codegen side data.
func (p *printer) genLoop(node *ast.For) (string, error) {
	if node.Meta == nil || node.Meta.Element == nil {
		return "", nodeError("template: stringify for", node, "loop is missing its element")
	}
	el := node.Meta.Element
	if !node.Meta.IsTemplateFor {
		return p.genElement(el)
	}
	var vfor ast.Prop
	var rest []ast.Prop
	for _, prop := range el.Props {
		if dir, ok := prop.(*ast.Directive); ok && dir.Name == "for" && vfor == nil {
			vfor = dir
			continue
		}
		rest = append(rest, prop)
	}
	var props []ast.Prop
	if node.CodegenProps != nil {
		for _, property := range node.CodegenProps.Properties {
			prop, err := p.codegenProp(property)
			if err != nil {
				return "", err
			}
			props = append(props, prop)
		}
	}
	props = append(props, rest...)
	wrapper := copyElement(el)
	wrapper.Props = props
	if !node.Loc.IsZero() {
		wrapper.Loc = node.Loc
		names, err := p.genProps(wrapper)
		if err != nil {
			return "", err
		}
		for i, name := range names {
			names[i] = strings.SplitN(name, "=", 2)[0]
		}
		sorted := make([]ast.Prop, 0, len(props))
		for _, index := range sortByPosition(node.Loc.Source, names, false) {
			sorted = append(sorted, props[index])
		}
		wrapper.Props = sorted
	}
	if vfor != nil {
		if err := p.insertProp(wrapper, "for", vfor); err != nil {
			return "", err
		}
	}
	return p.genElement(wrapper)
}
