package docsync

import "github.com/stubdoc/stubdoc/internal/ast"

// Docstring is a raw docstring value, or its recorded absence. Absence in a
// mapping is distinct from a missing mapping entry: absent means the source
// declaration exists and has no docstring, so the target's must be removed.
type Docstring struct {
	Text    string
	Present bool
}

// Mapping holds the docstring value recorded at each declaration address.
// It is built once per source tree and only read afterwards.
type Mapping map[string]Docstring

type collector struct {
	src   []byte
	stack nameStack
	docs  Mapping
}

// Collect walks a parsed module once and records the docstring value of the
// module root and of every class and function declaration under its address.
// Declarations without a docstring are recorded with an explicit absent value.
func Collect(root *ast.Node, src []byte) Mapping {
	c := &collector{src: src, docs: make(Mapping)}

	c.docs[RootAddress().Key()] = docstringValue(root, src)
	for _, stmt := range root.NamedChildren() {
		c.walk(stmt)
	}
	return c.docs
}

func (c *collector) walk(n *ast.Node) {
	switch n.Type {
	case ast.NodeDecoratedDef:
		c.walk(ast.Definition(n))

	case ast.NodeClassDef:
		c.stack.push(ast.DeclarationName(n, c.src))
		body := ast.Body(n)
		c.docs[c.stack.snapshot().Key()] = docstringValue(body, c.src)
		if body != nil {
			for _, child := range body.NamedChildren() {
				c.walk(child)
			}
		}
		c.stack.pop()

	case ast.NodeFunctionDef:
		c.stack.push(ast.DeclarationName(n, c.src))
		c.docs[c.stack.snapshot().Key()] = docstringValue(ast.Body(n), c.src)
		// Stub files do not nest functions; nothing below is addressable.
		c.stack.pop()

	default:
		for _, child := range n.NamedChildren() {
			c.walk(child)
		}
	}
}

func docstringValue(block *ast.Node, src []byte) Docstring {
	if block == nil {
		return Docstring{}
	}
	text, ok := ast.Docstring(block, src)
	return Docstring{Text: text, Present: ok}
}
