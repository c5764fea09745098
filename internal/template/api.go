package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/livebud/sfcmod/internal/ast"
)

// NodeError is returned when a node doesn't have the shape an operation needs
type NodeError struct {
	Op      string
	Message string
	Node    ast.Node
}

func (e *NodeError) Error() string {
	if e.Node == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Message + "\n" + ast.Print(e.Node)
}

func nodeError(op string, node ast.Node, format string, args ...interface{}) error {
	return &NodeError{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	}
}

// Must panics on err. Useful for constructors in tests and presets.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// directives that CreateDirective accepts
var vocabulary = map[string]bool{
	"bind":    true,
	"on":      true,
	"if":      true,
	"else":    true,
	"else-if": true,
	"for":     true,
	"show":    true,
	"html":    true,
	"text":    true,
	"model":   true,
	"memo":    true,
	"once":    true,
	"cloak":   true,
	"pre":     true,
	"slot":    true,
	"style":   true,
	"class":   true,
}

// IsDirectiveName is true for names in the directive vocabulary
func IsDirectiveName(name string) bool {
	return vocabulary[name]
}

// CreateSimpleExpression creates a generated expression
func CreateSimpleExpression(content string, isStatic bool) *ast.SimpleExpression {
	return &ast.SimpleExpression{
		Content:   content,
		IsStatic:  isStatic,
		ConstType: ast.CanStringify,
	}
}

// StringToExpression turns a string into an expression
func StringToExpression(source string, isStatic bool) ast.Expression {
	return CreateSimpleExpression(source, isStatic)
}

type DirectiveOptions struct {
	Name      string
	Arg       ast.Expression
	Exp       ast.Expression
	Modifiers []string
	// Shorthand defaults to true for on and slot
	Shorthand *bool
	For       *ast.ForParseResult
}

// CreateDirective creates a generated directive
func CreateDirective(options DirectiveOptions) (*ast.Directive, error) {
	if !vocabulary[options.Name] {
		return nil, nodeError("template: create directive", nil, "unrecognised directive name %q", options.Name)
	}
	shorthand := options.Name == "on" || options.Name == "slot"
	if options.Shorthand != nil {
		shorthand = *options.Shorthand
	}
	modifiers := make([]*ast.SimpleExpression, len(options.Modifiers))
	for i, mod := range options.Modifiers {
		modifiers[i] = CreateSimpleExpression(mod, true)
	}
	return &ast.Directive{
		Name:      options.Name,
		Arg:       options.Arg,
		Exp:       options.Exp,
		Modifiers: modifiers,
		Meta: ast.DirectiveMeta{
			Shorthand: shorthand,
			For:       options.For,
		},
	}, nil
}

func createDirective(name string, exp ast.Expression) *ast.Directive {
	return Must(CreateDirective(DirectiveOptions{Name: name, Exp: exp}))
}

func CreateVCloakDirective() *ast.Directive { return createDirective("cloak", nil) }
func CreateVElseDirective() *ast.Directive  { return createDirective("else", nil) }
func CreateVOnceDirective() *ast.Directive  { return createDirective("once", nil) }
func CreateVPreDirective() *ast.Directive   { return createDirective("pre", nil) }

func createExpDirective(name string, exp ast.Expression) (*ast.Directive, error) {
	if exp == nil {
		return nil, nodeError("template: create directive", nil, "v-%s needs an expression", name)
	}
	return createDirective(name, exp), nil
}

func CreateVIfDirective(condition ast.Expression) (*ast.Directive, error) {
	return createExpDirective("if", condition)
}

func CreateVElseIfDirective(condition ast.Expression) (*ast.Directive, error) {
	return createExpDirective("else-if", condition)
}

func CreateVShowDirective(condition ast.Expression) (*ast.Directive, error) {
	return createExpDirective("show", condition)
}

func CreateVHTMLDirective(exp ast.Expression) (*ast.Directive, error) {
	return createExpDirective("html", exp)
}

func CreateVTextDirective(exp ast.Expression) (*ast.Directive, error) {
	return createExpDirective("text", exp)
}

// CreateVMemoDirective joins the dependencies into a single array expression
func CreateVMemoDirective(dependencies ...string) *ast.Directive {
	exp := CreateSimpleExpression("["+strings.Join(dependencies, ", ")+"]", true)
	return createDirective("memo", exp)
}

// CreateStyleAttr creates a :style binding from a map of declarations. Keys
// are sorted.
func CreateStyleAttr(style map[string]string) (*ast.Directive, error) {
	out := new(bytes.Buffer)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(style); err != nil {
		return nil, fmt.Errorf("template: unable to encode style. %w", err)
	}
	shorthand := true
	return CreateDirective(DirectiveOptions{
		Name:      "bind",
		Arg:       CreateSimpleExpression("style", true),
		Exp:       CreateSimpleExpression(strings.TrimSpace(out.String()), false),
		Shorthand: &shorthand,
	})
}

type BindOptions struct {
	// Prop is a static prop name. Arg is used for dynamic args.
	Prop      string
	Arg       ast.Expression
	Exp       ast.Expression
	Modifiers []string
	Shorthand *bool
}

func CreateVBindDirective(options BindOptions) (*ast.Directive, error) {
	arg := options.Arg
	if options.Prop != "" {
		if arg != nil {
			return nil, nodeError("template: create v-bind", arg, "prop and arg can't both be set")
		}
		arg = CreateSimpleExpression(options.Prop, true)
	}
	return CreateDirective(DirectiveOptions{
		Name:      "bind",
		Arg:       arg,
		Exp:       options.Exp,
		Modifiers: options.Modifiers,
		Shorthand: options.Shorthand,
	})
}

type ForOptions struct {
	Source string
	Value  string
	Key    string
	Index  string
}

func (o ForOptions) parseResult() *ast.ForParseResult {
	result := &ast.ForParseResult{Source: StringToExpression(o.Source, false)}
	if o.Value != "" {
		result.Value = StringToExpression(o.Value, false)
	}
	if o.Key != "" {
		result.Key = StringToExpression(o.Key, false)
	}
	if o.Index != "" {
		result.Index = StringToExpression(o.Index, false)
	}
	return result
}

// CreateVForDirective creates a v-for directive. The source is required.
func CreateVForDirective(options ForOptions) (*ast.Directive, error) {
	if options.Source == "" {
		return nil, nodeError("template: create v-for", nil, "source is required")
	}
	return CreateVForDirectiveFrom(options.parseResult())
}

// CreateVForDirectiveFrom creates a v-for directive from parsed loop parts
func CreateVForDirectiveFrom(result *ast.ForParseResult) (*ast.Directive, error) {
	if result == nil || result.Source == nil {
		return nil, nodeError("template: create v-for", nil, "source is required")
	}
	return CreateDirective(DirectiveOptions{
		Name: "for",
		For:  result,
	})
}

type ForNodeOptions struct {
	ForOptions
	Element       *ast.Element
	IsTemplateFor bool
}

// CreateFor creates a loop around an element. The element gets a v-for
// directive unless it already has one.
func CreateFor(options ForNodeOptions) (*ast.For, error) {
	if options.Element == nil {
		return nil, nodeError("template: create for", nil, "element is required")
	}
	if options.Source == "" {
		return nil, nodeError("template: create for", options.Element, "source is required")
	}
	result := options.parseResult()
	if len(FindDirectivesByName(options.Element, "for")) == 0 {
		dir, err := CreateVForDirectiveFrom(result)
		if err != nil {
			return nil, err
		}
		options.Element.Props = append(options.Element.Props, dir)
	}
	return &ast.For{
		Source:      result.Source,
		ValueAlias:  result.Value,
		KeyAlias:    result.Key,
		IndexAlias:  result.Index,
		ParseResult: result,
		Meta: &ast.ForMeta{
			Element:       options.Element,
			IsTemplateFor: options.IsTemplateFor,
		},
	}, nil
}

func CreateText(content string) *ast.Text {
	return &ast.Text{Content: content}
}

type ElementOptions struct {
	Tag      string
	TagType  ast.ElementType
	Props    []ast.Prop
	Children []ast.Child
	// SelfClosing defaults to true when there are no children
	SelfClosing *bool
}

func CreatePlainElement(options ElementOptions) *ast.Element {
	selfClosing := len(options.Children) == 0
	if options.SelfClosing != nil {
		selfClosing = *options.SelfClosing
	}
	return &ast.Element{
		Tag:         options.Tag,
		TagType:     options.TagType,
		Props:       options.Props,
		Children:    options.Children,
		SelfClosing: selfClosing,
	}
}

// CreateTemplate creates a <template> wrapper element
func CreateTemplate(options ElementOptions) *ast.Element {
	if options.Tag == "" {
		options.Tag = "template"
	}
	options.TagType = ast.ElementTemplate
	return CreatePlainElement(options)
}

// CreateAttribute creates an attribute. An empty value creates a boolean
// attribute.
func CreateAttribute(name, value string) *ast.Attribute {
	attr := &ast.Attribute{Name: name}
	if value != "" {
		attr.Value = CreateText(value)
	}
	return attr
}

// CompareAttributeValues compares attribute values. A missing value is "true".
func CompareAttributeValues(a, b *ast.Text) bool {
	if a == nil && b == nil {
		return true
	}
	return attributeValue(a) == attributeValue(b)
}

func attributeValue(t *ast.Text) string {
	if t == nil {
		return "true"
	}
	return t.Content
}

// Children returns the nodes reachable from a node in one step
func Children(node ast.Node) (out []ast.Node) {
	add := func(nodes ...ast.Node) {
		for _, n := range nodes {
			if n == nil || isNilNode(n) {
				continue
			}
			out = append(out, n)
		}
	}
	switch n := node.(type) {
	case *ast.Root:
		for _, child := range n.Children {
			add(child)
		}
	case *ast.Element:
		for _, prop := range n.Props {
			add(prop)
		}
		for _, child := range n.Children {
			add(child)
		}
	case *ast.Interpolation:
		add(n.Content)
	case *ast.TextCall:
		add(n.Content)
	case *ast.If:
		for _, branch := range n.Branches {
			add(branch)
		}
	case *ast.IfBranch:
		add(n.Condition, n.UserKey)
		for _, comment := range n.Comments {
			add(comment)
		}
		for _, child := range n.Children {
			add(child)
		}
	case *ast.For:
		add(n.Source, n.ValueAlias, n.KeyAlias, n.IndexAlias)
		if n.Meta != nil && n.Meta.Element != nil {
			add(n.Meta.Element)
		}
		if n.CodegenProps != nil {
			add(n.CodegenProps)
		}
		for _, child := range n.Children {
			add(child)
		}
	case *ast.Attribute:
		if n.Value != nil {
			add(n.Value)
		}
	case *ast.Directive:
		add(n.Arg, n.Exp)
		for _, mod := range n.Modifiers {
			add(mod)
		}
	case *ast.CompoundExpression:
		for _, part := range n.Children {
			if child, ok := part.(ast.Node); ok {
				add(child)
			}
		}
	case *ast.ObjectExpression:
		for _, prop := range n.Properties {
			add(prop)
		}
	case *ast.Property:
		add(n.Key, n.Value)
	}
	return out
}

// isNilNode catches typed nils stored in interfaces
func isNilNode(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.SimpleExpression:
		return n == nil
	case *ast.CompoundExpression:
		return n == nil
	case *ast.Attribute:
		return n == nil
	case *ast.Directive:
		return n == nil
	case *ast.Element:
		return n == nil
	}
	return false
}

// ExploreAst visits every node reachable from root once and returns the
// nodes that match
func ExploreAst(root ast.Node, match func(ast.Node) bool) []ast.Node {
	seen := map[ast.Node]bool{}
	var matches []ast.Node
	stack := []ast.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[node] {
			continue
		}
		seen[node] = true
		if match(node) {
			matches = append(matches, node)
		}
		children := Children(node)
		for i := len(children) - 1; i >= 0; i-- {
			if !seen[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
	return matches
}

// FindAstAttributes finds attributes anywhere in the tree. A nil match finds
// every attribute.
func FindAstAttributes(root ast.Node, match func(*ast.Attribute) bool) []*ast.Attribute {
	var attrs []*ast.Attribute
	for _, node := range ExploreAst(root, IsAttribute) {
		attr := node.(*ast.Attribute)
		if match == nil || match(attr) {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// AttributeQuery matches attributes by name or by value
type AttributeQuery struct {
	Name  string
	Value *ast.Text
}

func (q AttributeQuery) match(attr *ast.Attribute) bool {
	if q.Name != "" && attr.Name == q.Name {
		return true
	}
	if q.Value != nil && CompareAttributeValues(attr.Value, q.Value) {
		return true
	}
	return false
}

// FindAttributes returns the element's attributes matching the query
func FindAttributes(el *ast.Element, query AttributeQuery) []*ast.Attribute {
	var attrs []*ast.Attribute
	for _, prop := range el.Props {
		if attr, ok := prop.(*ast.Attribute); ok && query.match(attr) {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// DirectiveQuery matches directives by name or by modifiers. A directive
// matches the modifiers when it carries all of them.
type DirectiveQuery struct {
	Name      string
	Modifiers []string
	// Comparing args and expressions isn't supported
	Arg ast.Expression
	Exp ast.Expression
}

func (q DirectiveQuery) match(dir *ast.Directive) (bool, error) {
	if q.Name != "" && dir.Name == q.Name {
		return true, nil
	}
	if len(q.Modifiers) > 0 && hasModifiers(dir, q.Modifiers) {
		return true, nil
	}
	if q.Arg != nil {
		return false, nodeError("template: find directives", dir, "comparing args is not supported")
	}
	if q.Exp != nil {
		return false, nodeError("template: find directives", dir, "comparing expressions is not supported")
	}
	return false, nil
}

func hasModifiers(dir *ast.Directive, modifiers []string) bool {
	for _, want := range modifiers {
		found := false
		for _, mod := range dir.Modifiers {
			if mod.Content == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FindDirectives returns the element's directives matching the query
func FindDirectives(el *ast.Element, query DirectiveQuery) ([]*ast.Directive, error) {
	var dirs []*ast.Directive
	for _, prop := range el.Props {
		dir, ok := prop.(*ast.Directive)
		if !ok {
			continue
		}
		matched, err := query.match(dir)
		if err != nil {
			return nil, err
		}
		if matched {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// FindDirectivesByName returns the element's directives with the name
func FindDirectivesByName(el *ast.Element, name string) []*ast.Directive {
	return Must(FindDirectives(el, DirectiveQuery{Name: name}))
}

// AttributeChanges patches an attribute. Nil fields are left alone.
type AttributeChanges struct {
	Name  *string
	Value *string
	Text  *ast.Text
	// RemoveValue turns the attribute into a boolean attribute
	RemoveValue bool
}

// UpdateAttribute patches an attribute. The attribute loses its source
// location so it is printed from its fields.
func UpdateAttribute(attr *ast.Attribute, updater func(attr *ast.Attribute) AttributeChanges) error {
	changes := updater(attr)
	if changes.Name != nil && *changes.Name == "" {
		return nodeError("template: update attribute", attr, "invalid attribute name %q", *changes.Name)
	}
	set := 0
	if changes.Value != nil {
		set++
	}
	if changes.Text != nil {
		set++
	}
	if changes.RemoveValue {
		set++
	}
	if set > 1 {
		return nodeError("template: update attribute", attr, "invalid attribute value, only one of value, text or remove value can be set")
	}
	if changes.Name != nil {
		attr.Name = *changes.Name
	}
	switch {
	case changes.Value != nil:
		attr.Value = CreateText(*changes.Value)
	case changes.Text != nil:
		attr.Value = changes.Text
	case changes.RemoveValue:
		attr.Value = nil
	}
	attr.Loc = ast.Loc{}
	attr.NameLoc = ast.Loc{}
	return nil
}

// RemoveAttribute removes the element's attributes matching the query
func RemoveAttribute(el *ast.Element, query AttributeQuery) {
	props := el.Props[:0]
	for _, prop := range el.Props {
		if attr, ok := prop.(*ast.Attribute); ok && query.match(attr) {
			continue
		}
		props = append(props, prop)
	}
	el.Props = props
}

// RemoveDirective removes the element's directives matching the query
func RemoveDirective(el *ast.Element, query DirectiveQuery) error {
	remove, err := FindDirectives(el, query)
	if err != nil {
		return err
	}
	props := el.Props[:0]
outer:
	for _, prop := range el.Props {
		for _, dir := range remove {
			if prop == ast.Prop(dir) {
				continue outer
			}
		}
		props = append(props, prop)
	}
	el.Props = props
	return nil
}

// sortByPosition orders texts by where they first appear in source and
// returns their indexes. Text that isn't found sorts first or last.
func sortByPosition(source string, texts []string, missingFirst bool) []int {
	positions := make([]int, len(texts))
	order := make([]int, len(texts))
	for i, text := range texts {
		order[i] = i
		positions[i] = strings.Index(source, text)
		if positions[i] < 0 && !missingFirst {
			positions[i] = len(source)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return positions[order[a]] < positions[order[b]]
	})
	return order
}
