package pyast

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Token kinds with special meaning for callers.
const (
	KindComment          = "comment"
	KindLineContinuation = "line_continuation"
	KindString           = "string"
)

// Token is a lexical token recovered from the leaves of the syntax tree.
// String literals are kept whole.
type Token struct {
	Kind      string
	Text      string
	StartLine int
	EndLine   int
}

// Tokens returns the leaf tokens of the tree in document order. Zero-width
// tokens inserted by error recovery are omitted.
func (t *Tree) Tokens() []Token {
	var tokens []Token
	Walk(t.Root(), func(n *sitter.Node) bool {
		if n.ChildCount() > 0 && n.Kind() != KindString {
			return true
		}
		if n.StartByte() == n.EndByte() {
			return false
		}
		start := int(n.StartPosition().Row) + 1
		tokens = append(tokens, Token{
			Kind:      n.Kind(),
			Text:      t.Text(n),
			StartLine: start,
			EndLine:   int(n.EndPosition().Row) + 1,
		})
		return false
	})
	return tokens
}
