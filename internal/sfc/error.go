package sfc

import (
	"fmt"

	"github.com/livebud/sfcmod/internal/ast"
)

// SyntaxError is a structural problem with the document
type SyntaxError struct {
	Message string
	Loc     ast.Loc
}

func (e *SyntaxError) Error() string {
	return e.Message
}

func duplicateBlockError(node *ast.Element, setup bool) error {
	tag := node.Tag
	if setup {
		tag += " setup"
	}
	return &SyntaxError{
		Message: fmt.Sprintf("Single file component can contain only one <%s> element", tag),
		Loc:     node.Loc,
	}
}
