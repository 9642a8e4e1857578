package ast

import "strings"

// DocstringNode returns the string literal node when stmt is a standalone
// string-expression statement, else nil.
func DocstringNode(stmt *Node) *Node {
	if stmt.Type != NodeExprStatement {
		return nil
	}
	named := stmt.NamedChildren()
	if len(named) == 0 {
		return nil
	}
	if named[0].Type == NodeString {
		return named[0]
	}
	return nil
}

// Docstring returns the raw content of a block's docstring: the text of its
// first statement when that statement is a string literal. The content is the
// bytes between the quote delimiters, untouched.
func Docstring(block *Node, src []byte) (string, bool) {
	stmts := Statements(block)
	if len(stmts) == 0 {
		return "", false
	}
	strNode := DocstringNode(stmts[0])
	if strNode == nil {
		return "", false
	}
	return StringContent(strNode, src)
}

// IsPlaceholder reports whether stmt is a no-op stub statement: an ellipsis
// expression or a pass statement.
func IsPlaceholder(stmt *Node) bool {
	switch stmt.Type {
	case NodePassStatement:
		return true
	case NodeExprStatement:
		named := stmt.NamedChildren()
		return len(named) > 0 && named[0].Type == NodeEllipsis
	default:
		return false
	}
}

// StringContent extracts the text between a string literal's delimiters.
// Newer grammars expose the delimiters as string_start/string_end children;
// otherwise the delimiters are stripped from the literal text directly.
func StringContent(strNode *Node, src []byte) (string, bool) {
	start := strNode.ChildByType("string_start")
	var end *Node
	for _, c := range strNode.Children {
		if c.Type == "string_end" {
			end = c
		}
	}
	if start != nil && end != nil && start.EndByte <= end.StartByte {
		return string(src[start.EndByte:end.StartByte]), true
	}
	return stripDelimiters(strNode.Content(src))
}

func stripDelimiters(lit string) (string, bool) {
	// String prefixes (r, b, u, f and their combinations) are at most two
	// letters before the opening quote.
	i := 0
	for i < len(lit) && lit[i] != '"' && lit[i] != '\'' {
		i++
		if i > 2 {
			return "", false
		}
	}
	if i >= len(lit) {
		return "", false
	}

	quote := lit[i : i+1]
	delim := quote
	if strings.HasPrefix(lit[i:], strings.Repeat(quote, 3)) {
		delim = strings.Repeat(quote, 3)
	}

	body := lit[i+len(delim):]
	if len(body) < len(delim) || !strings.HasSuffix(body, delim) {
		return "", false
	}
	return body[:len(body)-len(delim)], true
}
