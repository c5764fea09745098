package template

import "github.com/livebud/sfcmod/internal/ast"

func IsRoot(node ast.Node) bool {
	_, ok := node.(*ast.Root)
	return ok
}

func IsElement(node ast.Node) bool {
	_, ok := node.(*ast.Element)
	return ok
}

func IsText(node ast.Node) bool {
	_, ok := node.(*ast.Text)
	return ok
}

func IsComment(node ast.Node) bool {
	_, ok := node.(*ast.Comment)
	return ok
}

func IsInterpolation(node ast.Node) bool {
	_, ok := node.(*ast.Interpolation)
	return ok
}

func IsIf(node ast.Node) bool {
	_, ok := node.(*ast.If)
	return ok
}

func IsIfBranch(node ast.Node) bool {
	_, ok := node.(*ast.IfBranch)
	return ok
}

func IsFor(node ast.Node) bool {
	_, ok := node.(*ast.For)
	return ok
}

func IsTextCall(node ast.Node) bool {
	_, ok := node.(*ast.TextCall)
	return ok
}

func IsAttribute(node ast.Node) bool {
	_, ok := node.(*ast.Attribute)
	return ok
}

func IsDirective(node ast.Node) bool {
	_, ok := node.(*ast.Directive)
	return ok
}

func IsSimpleExpression(node ast.Node) bool {
	_, ok := node.(*ast.SimpleExpression)
	return ok
}

func IsCompoundExpression(node ast.Node) bool {
	_, ok := node.(*ast.CompoundExpression)
	return ok
}

func IsObjectExpression(node ast.Node) bool {
	_, ok := node.(*ast.ObjectExpression)
	return ok
}

func IsProperty(node ast.Node) bool {
	_, ok := node.(*ast.Property)
	return ok
}

// IsGenerated is true for nodes created by a transformation rather than
// parsed from source
func IsGenerated(node ast.Node) bool {
	return node.Location().IsZero()
}
