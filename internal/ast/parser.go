package ast

import "context"

// Node represents a parsed AST node owned by this package. It mirrors the
// underlying tree-sitter node but survives the parse tree being closed.
type Node struct {
	Type      string // module, class_definition, function_definition, etc.
	FieldName string // Grammar field name in the parent, if any (name, body, ...)
	Named     bool
	StartByte int
	EndByte   int
	StartLine int
	EndLine   int
	Children  []*Node
}

// Parser turns Python source text into an owned AST.
type Parser interface {
	// Parse returns the AST root node (a module node).
	Parse(ctx context.Context, content []byte) (*Node, error)

	// Available returns true if a real parser is compiled in.
	Available() bool
}

// Content returns the source text covered by the node.
func (n *Node) Content(src []byte) string {
	if n.StartByte < 0 || n.EndByte > len(src) || n.StartByte > n.EndByte {
		return ""
	}
	return string(src[n.StartByte:n.EndByte])
}

// ChildByField returns the first child carrying the given grammar field name.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.FieldName == field {
			return c
		}
	}
	return nil
}

// ChildByType returns the first child of the given node type.
func (n *Node) ChildByType(nodeType string) *Node {
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named children, which correspond to the
// grammar's syntactic elements rather than punctuation tokens.
func (n *Node) NamedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}
