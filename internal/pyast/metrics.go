package pyast

import (
	"context"
	"math"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Stats are the raw code metrics recorded in audit logs.
type Stats struct {
	SLOC          int     `json:"loc"`
	AvgComplexity float64 `json:"avg_complexity"`
}

// Metrics computes source lines of code and the mean cyclomatic complexity of
// all functions in src. Unparsable input yields zero values.
func Metrics(ctx context.Context, src string) Stats {
	tree, err := Parse(ctx, src)
	if tree != nil {
		defer tree.Close()
	}
	if err != nil {
		return Stats{}
	}
	return Stats{
		SLOC:          tree.sloc(),
		AvgComplexity: tree.avgComplexity(),
	}
}

// sloc counts lines that start at least one token, ignoring comments and
// docstring-like bare string statements.
func (t *Tree) sloc() int {
	rows := map[uint]struct{}{}
	Walk(t.Root(), func(n *sitter.Node) bool {
		if isBareString(n) || n.Kind() == KindComment {
			return false
		}
		if n.ChildCount() > 0 && n.Kind() != KindString {
			return true
		}
		if n.StartByte() != n.EndByte() {
			rows[n.StartPosition().Row] = struct{}{}
		}
		return false
	})
	return len(rows)
}

func isBareString(n *sitter.Node) bool {
	if n.Kind() != "expression_statement" || n.NamedChildCount() != 1 {
		return false
	}
	child := n.NamedChild(0).Kind()
	return child == KindString || child == "concatenated_string"
}

func (t *Tree) avgComplexity() float64 {
	var scores []int
	Walk(t.Root(), func(n *sitter.Node) bool {
		if n.Kind() == "function_definition" {
			scores = append(scores, 1+decisionPoints(n.ChildByFieldName("body")))
		}
		return true
	})
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return math.Round(float64(total)/float64(len(scores))*100) / 100
}

// decisionPoints counts branches below n, not descending into nested functions.
func decisionPoints(n *sitter.Node) int {
	count := 0
	Walk(n, func(c *sitter.Node) bool {
		switch c.Kind() {
		case "function_definition", "lambda":
			return false
		case "if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "conditional_expression", "boolean_operator",
			"for_in_clause", "if_clause", "case_clause":
			count++
		case "else_clause":
			if p := c.Parent(); p != nil && p.Kind() != "if_statement" {
				count++
			}
		}
		return true
	})
	return count
}
