package docsync

import (
	"fmt"

	"github.com/stubdoc/stubdoc/internal/ast"
	apperrors "github.com/stubdoc/stubdoc/internal/pkg/errors"
)

// Diagnostic reports a target declaration that could not be matched against
// the source mapping. It is a recoverable condition: the declaration passes
// through untouched.
type Diagnostic struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// Result carries the rewritten source and the diagnostics produced along
// the way.
type Result struct {
	Output      []byte
	Changed     bool
	Diagnostics []Diagnostic
}

// Options control how new block bodies are generated.
type Options struct {
	// Indent is one indentation unit, used when an inline placeholder body
	// is expanded into a block. Defaults to four spaces.
	Indent string
}

func (o Options) indentUnit() string {
	if o.Indent == "" {
		return "    "
	}
	return o.Indent
}

// bodyShape is the closed classification of a declaration body's leading
// statement. Every (shape, value) combination is ruled on explicitly; the
// combinations with no rule abort the rewrite.
type bodyShape int

const (
	shapeDocstringFirst   bodyShape = iota // block led by a string literal statement
	shapePlaceholderFirst                  // block led by an ellipsis or pass statement
	shapeOtherBlock                        // block led by any other statement
	shapeInlinePlaceholder                 // single placeholder on the header line
	shapeUndefined                         // empty body or anything else
)

func (s bodyShape) String() string {
	switch s {
	case shapeDocstringFirst:
		return "docstring-first block"
	case shapePlaceholderFirst:
		return "placeholder-first block"
	case shapeOtherBlock:
		return "block"
	case shapeInlinePlaceholder:
		return "inline placeholder"
	default:
		return "undefined"
	}
}

// edit replaces src[start:end] with text.
type edit struct {
	start, end int
	text       string
}

type rewriter struct {
	src   []byte
	docs  Mapping
	opts  Options
	stack nameStack
	edits []edit
	diags []Diagnostic
}

// Rewrite applies a collected mapping to a parsed target module. Matched
// declarations go through the body rewrite rules; unmatched ones produce a
// diagnostic and pass through byte-identical. Any undefined body shape
// aborts the whole rewrite with no output, so a partially rewritten file is
// never emitted.
func Rewrite(root *ast.Node, src []byte, docs Mapping, opts Options) (*Result, error) {
	r := &rewriter{src: src, docs: docs, opts: opts}

	for _, stmt := range root.NamedChildren() {
		if err := r.walk(stmt); err != nil {
			return nil, err
		}
	}

	// The module root's docstring is handled once, outside the declaration
	// traversal.
	if err := r.rewriteModule(root); err != nil {
		return nil, err
	}

	out := r.apply()
	return &Result{
		Output:      out,
		Changed:     len(r.edits) > 0,
		Diagnostics: r.diags,
	}, nil
}

func (r *rewriter) walk(n *ast.Node) error {
	switch n.Type {
	case ast.NodeDecoratedDef:
		return r.walk(ast.Definition(n))

	case ast.NodeClassDef:
		r.stack.push(ast.DeclarationName(n, r.src))
		if body := ast.Body(n); body != nil {
			for _, child := range body.NamedChildren() {
				if err := r.walk(child); err != nil {
					return err
				}
			}
		}
		// Children first: the declaration itself is rewritten on the way out.
		addr := r.stack.snapshot()
		r.stack.pop()
		return r.rewriteDeclaration(n, addr)

	case ast.NodeFunctionDef:
		r.stack.push(ast.DeclarationName(n, r.src))
		addr := r.stack.snapshot()
		r.stack.pop()
		// Stub files do not nest functions; nothing below is addressable.
		return r.rewriteDeclaration(n, addr)

	default:
		for _, child := range n.NamedChildren() {
			if err := r.walk(child); err != nil {
				return err
			}
		}
		return nil
	}
}

func (r *rewriter) rewriteDeclaration(def *ast.Node, addr Address) error {
	doc, ok := r.docs[addr.Key()]
	if !ok {
		r.diags = append(r.diags, Diagnostic{
			Address: addr.Key(),
			Reason:  "no source entry for this address",
		})
		return nil
	}
	return r.applyRule(def, ast.Body(def), addr, doc)
}

func (r *rewriter) rewriteModule(root *ast.Node) error {
	addr := RootAddress()
	doc, ok := r.docs[addr.Key()]
	if !ok {
		r.diags = append(r.diags, Diagnostic{
			Address: addr.Key(),
			Reason:  "no source entry for module root",
		})
		return nil
	}

	// The root entry is always recorded, so an absent value here just means
	// the source module carries no docstring. Most modules don't; that is a
	// removal only when the target actually has one, never an abort.
	if !doc.Present {
		if stmts := ast.Statements(root); len(stmts) > 0 && ast.DocstringNode(stmts[0]) != nil {
			r.deleteStatementLine(stmts[0])
		}
		return nil
	}

	return r.applyRule(nil, root, addr, doc)
}

// applyRule is the body rewrite decision table: (body shape, new value) to
// an edit, or a fatal error for the combinations with no defined rule.
func (r *rewriter) applyRule(def, body *ast.Node, addr Address, doc Docstring) error {
	shape, stmts := classify(def, body)

	switch shape {
	case shapeDocstringFirst:
		if doc.Present {
			r.replaceDocstring(stmts[0], doc.Text)
			return nil
		}
		r.deleteStatementLine(stmts[0])
		return nil

	case shapePlaceholderFirst:
		if doc.Present {
			// A placeholder-led body carries no payload worth keeping.
			r.wipeRange(stmts[0].StartByte, body.EndByte, quote(doc.Text))
			return nil
		}
		return r.shapeError(addr, def, body, shape, "placeholder body has no docstring to remove")

	case shapeOtherBlock:
		if doc.Present {
			r.insertBefore(stmts[0], doc.Text)
			return nil
		}
		return r.shapeError(addr, def, body, shape, "body has no docstring to remove")

	case shapeInlinePlaceholder:
		if doc.Present {
			r.expandInline(def, body, doc.Text)
			return nil
		}
		return r.shapeError(addr, def, body, shape, "inline placeholder has no docstring to remove")

	default:
		return r.shapeError(addr, def, body, shape, "body shape not supported")
	}
}

// classify inspects only the first statement of a body. Trailing content is
// never scanned for a docstring.
func classify(def, body *ast.Node) (bodyShape, []*ast.Node) {
	if body == nil {
		return shapeUndefined, nil
	}
	stmts := ast.Statements(body)
	if len(stmts) == 0 {
		return shapeUndefined, nil
	}

	first := stmts[0]
	if def != nil && isInline(def, body) {
		if ast.IsPlaceholder(first) {
			return shapeInlinePlaceholder, stmts
		}
		return shapeUndefined, stmts
	}

	switch {
	case ast.DocstringNode(first) != nil:
		return shapeDocstringFirst, stmts
	case ast.IsPlaceholder(first):
		return shapePlaceholderFirst, stmts
	default:
		return shapeOtherBlock, stmts
	}
}

// isInline reports whether the body starts on the header line, i.e. the
// declaration has no indented block.
func isInline(def, body *ast.Node) bool {
	var prev *ast.Node
	for _, c := range def.Children {
		if c == body {
			break
		}
		prev = c
	}
	if prev == nil {
		return false
	}
	return body.StartLine == prev.EndLine
}

func (r *rewriter) shapeError(addr Address, def, body *ast.Node, shape bodyShape, reason string) error {
	node := body
	if def != nil {
		node = def
	}
	desc := "<nil>"
	if node != nil {
		desc = fmt.Sprintf("%s at bytes %d-%d", node.Type, node.StartByte, node.EndByte)
	}
	return apperrors.New(apperrors.CodeBodyShape, reason).
		WithDetail("address", addr.Key()).
		WithDetail("shape", shape.String()).
		WithDetail("node", desc)
}

func quote(text string) string {
	return `"""` + text + `"""`
}

// replaceDocstring swaps the literal content of an existing docstring
// statement. A content match produces no edit at all, keeping a no-op
// rewrite byte-identical regardless of the target's quoting style.
func (r *rewriter) replaceDocstring(stmt *ast.Node, text string) {
	strNode := ast.DocstringNode(stmt)
	if existing, ok := ast.StringContent(strNode, r.src); ok && existing == text {
		return
	}
	r.addEdit(strNode.StartByte, strNode.EndByte, quote(text))
}

// deleteStatementLine removes the statement's whole line, indentation and
// trailing newline included.
func (r *rewriter) deleteStatementLine(stmt *ast.Node) {
	r.addEdit(r.lineStart(stmt.StartByte), r.lineEnd(stmt.EndByte), "")
}

// insertBefore prepends a docstring statement on its own line, reusing the
// indentation of the statement it lands in front of.
func (r *rewriter) insertBefore(stmt *ast.Node, text string) {
	indent := string(r.src[r.lineStart(stmt.StartByte):stmt.StartByte])
	r.addEdit(stmt.StartByte, stmt.StartByte, quote(text)+"\n"+indent)
}

// wipeRange discards [start, end) in favor of text, dropping any edits that
// were already recorded inside the discarded region (nested declarations are
// visited before their parent, so a wiped class body may carry child edits).
func (r *rewriter) wipeRange(start, end int, text string) {
	kept := r.edits[:0]
	for _, e := range r.edits {
		if e.start >= start && e.end <= end {
			continue
		}
		kept = append(kept, e)
	}
	r.edits = kept
	r.addEdit(start, end, text)
}

// expandInline turns `def f(): ...` into a block holding only the docstring.
func (r *rewriter) expandInline(def, body *ast.Node, text string) {
	headIndent := string(r.src[r.lineStart(def.StartByte):def.StartByte])
	indent := headIndent + r.opts.indentUnit()

	// Consume the spaces between the colon and the placeholder.
	start := body.StartByte
	for start > 0 && (r.src[start-1] == ' ' || r.src[start-1] == '\t') {
		start--
	}
	r.addEdit(start, body.EndByte, "\n"+indent+quote(text))
}

func (r *rewriter) addEdit(start, end int, text string) {
	r.edits = append(r.edits, edit{start: start, end: end, text: text})
}

// lineStart returns the index just after the previous newline.
func (r *rewriter) lineStart(pos int) int {
	for pos > 0 && r.src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the index just past the next newline, or len(src).
func (r *rewriter) lineEnd(pos int) int {
	for pos < len(r.src) && r.src[pos] != '\n' {
		pos++
	}
	if pos < len(r.src) {
		pos++
	}
	return pos
}

// apply splices the recorded edits into the source. Edits never overlap by
// construction: each declaration contributes at most one edit and wipes
// evict the edits they cover.
func (r *rewriter) apply() []byte {
	if len(r.edits) == 0 {
		out := make([]byte, len(r.src))
		copy(out, r.src)
		return out
	}

	edits := make([]edit, len(r.edits))
	copy(edits, r.edits)
	sortEdits(edits)

	var out []byte
	pos := 0
	for _, e := range edits {
		out = append(out, r.src[pos:e.start]...)
		out = append(out, e.text...)
		pos = e.end
	}
	out = append(out, r.src[pos:]...)
	return out
}

func sortEdits(edits []edit) {
	// Insertion sort; edit lists are tiny.
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j].start < edits[j-1].start; j-- {
			edits[j], edits[j-1] = edits[j-1], edits[j]
		}
	}
}
