package tools

import (
	"context"
	"strings"
)

// SyntaxNode is an owned, backend independent view of one parse tree node.
// Field is the role the node plays in its parent ("function", "object",
// "name", "source", ...). Name is the text of the node's "name" child, or the
// node's own text for identifier leaves. Text is only kept for leaves.
type SyntaxNode struct {
	Type      string
	Field     string
	Name      string
	Text      string
	StartByte int
	Line      int
	EndLine   int
	Column    int
	Parent    *SyntaxNode
	Children  []*SyntaxNode
}

// SyntaxTree is the parse result for one file.
type SyntaxTree struct {
	Path      string
	Dialect   string
	Root      *SyntaxNode
	HasErrors bool
}

// SyntaxParser turns file content into a SyntaxTree. Implementations must be
// safe for concurrent use.
type SyntaxParser interface {
	Parse(ctx context.Context, filePath string, content []byte) (*SyntaxTree, error)
	Supports(filePath string) bool
}

var identifierTypes = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"type_identifier":                       true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
	"private_property_identifier":           true,
}

// IsIdentifier reports whether the node is an identifier-like leaf.
func (n *SyntaxNode) IsIdentifier() bool {
	return identifierTypes[n.Type]
}

// ChildByField returns the first child playing the given field role.
func (n *SyntaxNode) ChildByField(field string) *SyntaxNode {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenOfType returns the direct children with the given type.
func (n *SyntaxNode) ChildrenOfType(nodeType string) []*SyntaxNode {
	var out []*SyntaxNode
	for _, c := range n.Children {
		if c.Type == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// HasChildOfType reports whether any direct child has the given type.
func (n *SyntaxNode) HasChildOfType(nodeType string) bool {
	for _, c := range n.Children {
		if c.Type == nodeType {
			return true
		}
	}
	return false
}

// Walk visits the subtree in preorder using an explicit stack. Returning
// false from fn skips the node's children.
func (n *SyntaxNode) Walk(fn func(*SyntaxNode) bool) {
	stack := []*SyntaxNode{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// StringValue returns the unquoted content of a string literal node.
func StringValue(n *SyntaxNode) string {
	if n == nil {
		return ""
	}
	if n.Type == "string_fragment" {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		if c.Type == "string_fragment" || c.Type == "escape_sequence" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
