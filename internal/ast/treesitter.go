//go:build cgo

package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

type treeSitterParser struct{}

// NewParser returns the tree-sitter backed Python parser.
func NewParser() Parser {
	return &treeSitterParser{}
}

func (p *treeSitterParser) Parse(ctx context.Context, content []byte) (*Node, error) {
	// sitter.Parser instances are not safe for concurrent use; a fresh one
	// per call keeps Parse usable from worker goroutines.
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("failed to parse content")
	}
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in input")
	}

	return convertNode(root, ""), nil
}

func (p *treeSitterParser) Available() bool {
	return true
}

func convertNode(n *sitter.Node, field string) *Node {
	node := &Node{
		Type:      n.Type(),
		FieldName: field,
		Named:     n.IsNamed(),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		StartLine: int(n.StartPoint().Row),
		EndLine:   int(n.EndPoint().Row),
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child != nil {
			node.Children = append(node.Children, convertNode(child, n.FieldNameForChild(i)))
		}
	}
	return node
}
