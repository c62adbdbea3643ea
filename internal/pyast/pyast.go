// Package pyast parses Python source into concrete syntax trees and exposes the
// small set of queries the engine needs: definitions, leaf tokens and metrics.
package pyast

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ErrSyntax is returned when the source does not parse cleanly. The tree is
// still returned alongside it so error-tolerant callers can use it.
var ErrSyntax = errors.New("python syntax error")

// chunkSize bounds how much source is handed to the parser per read.
const chunkSize = 4096

// Tree is a parsed Python document.
type Tree struct {
	src  []byte
	tree *sitter.Tree
}

// Parse parses src. On a syntax error both a usable tree and an error wrapping
// ErrSyntax are returned. Close must be called on every non-nil tree.
func Parse(ctx context.Context, src string) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(python.Language())); err != nil {
		return nil, fmt.Errorf("failed to load python grammar: %w", err)
	}

	b := lineFeeds(src)
	tree := parser.ParseWithOptions(func(i int, _ sitter.Point) []byte {
		if i >= len(b) {
			return nil
		}
		return b[i:min(i+chunkSize, len(b))]
	}, nil, &sitter.ParseOptions{
		ProgressCallback: func(sitter.ParseState) bool { return ctx.Err() != nil },
	})
	if tree == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to parse python source: %w", err)
		}
		return nil, errors.New("failed to parse python source")
	}
	t := &Tree{src: b, tree: tree}

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return t, fmt.Errorf("%w near line %d", ErrSyntax, line)
	}
	return t, nil
}

// Close releases the underlying syntax tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Utf8Text(t.src)
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		Walk(n.Child(i), fn)
	}
}

// LineRange returns the 1-based inclusive line range of n. A node that ends at
// column 0 of a line does not cover that line.
func LineRange(n *sitter.Node) (int, int) {
	start := int(n.StartPosition().Row) + 1
	endPoint := n.EndPosition()
	end := int(endPoint.Row) + 1
	if endPoint.Column == 0 && end > start {
		end--
	}
	return start, end
}

// lineFeeds turns lone carriage returns, which the grammar does not accept
// as line endings, into line feeds. Byte offsets are unchanged.
func lineFeeds(src string) []byte {
	b := []byte(src)
	for i, c := range b {
		if c == '\r' && (i+1 == len(b) || b[i+1] != '\n') {
			b[i] = '\n'
		}
	}
	return b
}

func firstErrorLine(root *sitter.Node) int {
	line := 0
	Walk(root, func(n *sitter.Node) bool {
		if line != 0 {
			return false
		}
		if n.Kind() == "ERROR" || n.IsMissing() {
			line = int(n.StartPosition().Row) + 1
			return false
		}
		return n.HasError()
	})
	return line
}
