package ast

// Python grammar node types used throughout the sync engine.
const (
	NodeModule        = "module"
	NodeClassDef      = "class_definition"
	NodeFunctionDef   = "function_definition"
	NodeDecoratedDef  = "decorated_definition"
	NodeBlock         = "block"
	NodeExprStatement = "expression_statement"
	NodeString        = "string"
	NodeEllipsis      = "ellipsis"
	NodePassStatement = "pass_statement"
	NodeComment       = "comment"
)

// Grammar field names.
const (
	FieldName       = "name"
	FieldBody       = "body"
	FieldDefinition = "definition"
)

// IsDefinition reports whether the node declares a class or function.
func IsDefinition(n *Node) bool {
	return n.Type == NodeClassDef || n.Type == NodeFunctionDef
}

// Definition unwraps a decorated_definition to the inner declaration.
// Returns the node itself when it is not decorated.
func Definition(n *Node) *Node {
	if n.Type != NodeDecoratedDef {
		return n
	}
	if def := n.ChildByField(FieldDefinition); def != nil {
		return def
	}
	// Grammar versions without the field name: take the last child.
	if len(n.Children) > 0 {
		return n.Children[len(n.Children)-1]
	}
	return n
}

// DeclarationName returns the identifier of a class or function definition.
func DeclarationName(n *Node, src []byte) string {
	if name := n.ChildByField(FieldName); name != nil {
		return name.Content(src)
	}
	if id := n.ChildByType("identifier"); id != nil {
		return id.Content(src)
	}
	return ""
}

// Body returns the block node holding a declaration's statements.
func Body(n *Node) *Node {
	if body := n.ChildByField(FieldBody); body != nil {
		return body
	}
	return n.ChildByType(NodeBlock)
}

// Statements returns the block's statement nodes, skipping comments.
// For a module node the module's own children are the statements.
func Statements(block *Node) []*Node {
	var out []*Node
	for _, c := range block.NamedChildren() {
		if c.Type == NodeComment {
			continue
		}
		out = append(out, c)
	}
	return out
}
