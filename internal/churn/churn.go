// Package churn measures how much a patched document differs from the
// original, at statement and syntax-tree level.
package churn

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/pyast"
)

// Result holds both churn metrics.
type Result struct {
	NormalizedLineChurn int `json:"normalized_loc_churn"`
	StructuralChurn     int `json:"ast_churn"`
}

// Analyze computes both metrics between the original text a and the final text b.
func Analyze(ctx context.Context, a, b string) Result {
	return Result{
		NormalizedLineChurn: LineChurn(ctx, a, b),
		StructuralChurn:     StructuralChurn(ctx, a, b),
	}
}

// EditCost aligns a and b and sums the cost of the edit script: a replaced
// block costs the larger of its two sides, an inserted or deleted block its
// length.
func EditCost(a, b []string) int {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	cost := 0
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			cost += max(op.I2-op.I1, op.J2-op.J1)
		case 'd':
			cost += op.I2 - op.I1
		case 'i':
			cost += op.J2 - op.J1
		}
	}
	return cost
}

// LineChurn is the edit cost between the canonical statements of a and b.
// Comments, indentation and line wrapping do not count.
func LineChurn(ctx context.Context, a, b string) int {
	return EditCost(Statements(ctx, a), Statements(ctx, b))
}

// Statements returns one canonical string per logical statement of src: its
// tokens joined by single spaces, comments dropped.
func Statements(ctx context.Context, src string) []string {
	tree, _ := pyast.Parse(ctx, src)
	if tree == nil {
		return fieldLines(src)
	}
	defer tree.Close()
	lines := document.SplitLines(src)

	var (
		out     []string
		current []string
		depth   int
		lastEnd int
		joined  bool
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, tok := range tree.Tokens() {
		switch tok.Kind {
		case pyast.KindComment:
			continue
		case pyast.KindLineContinuation:
			joined = true
			continue
		}
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		if len(current) > 0 && depth == 0 && !joined && tok.StartLine > lastEnd && !continued(lines, lastEnd) {
			flush()
		}
		joined = false
		lastEnd = tok.EndLine

		switch tok.Text {
		case ";":
			if depth == 0 {
				flush()
				continue
			}
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		}
		current = append(current, tok.Text)
	}
	flush()
	return out
}

// continued reports whether 1-based line ends with a backslash continuation.
func continued(lines []string, line int) bool {
	if line < 1 || line > len(lines) {
		return false
	}
	return strings.HasSuffix(strings.TrimRight(lines[line-1], " \t\r\n"), "\\")
}

func fieldLines(src string) []string {
	var out []string
	for _, line := range strings.Split(src, "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			out = append(out, strings.Join(f, " "))
		}
	}
	return out
}

// StructuralChurn is the edit cost between the linearized syntax trees of a
// and b. When either text does not parse, the whitespace-token count of b is
// returned instead.
func StructuralChurn(ctx context.Context, a, b string) int {
	la, errA := Linearize(ctx, a)
	lb, errB := Linearize(ctx, b)
	if errA != nil || errB != nil {
		return len(strings.Fields(b))
	}
	return EditCost(la, lb)
}

// valued lists the node kinds whose source text is part of their token.
var valued = map[string]bool{
	"identifier": true,
	"integer":    true,
	"float":      true,
	"string":     true,
	"true":       true,
	"false":      true,
	"none":       true,
}

// operatorParents lists the node kinds whose anonymous children are operators.
var operatorParents = map[string]bool{
	"binary_operator":      true,
	"comparison_operator":  true,
	"boolean_operator":     true,
	"augmented_assignment": true,
	"unary_operator":       true,
}

// Linearize flattens the named nodes of the syntax tree of src in preorder
// into "Kind" or "Kind:Value" tokens. Identifiers, literals and thus
// attribute and definition names carry their value. Operators become
// "operator:<op>" tokens.
func Linearize(ctx context.Context, src string) ([]string, error) {
	tree, err := pyast.Parse(ctx, src)
	if tree != nil {
		defer tree.Close()
	}
	if err != nil {
		return nil, err
	}

	var out []string
	pyast.Walk(tree.Root(), func(n *sitter.Node) bool {
		kind := n.Kind()
		if kind == pyast.KindComment || kind == pyast.KindLineContinuation {
			return false
		}
		if !n.IsNamed() {
			if parent := n.Parent(); parent != nil && operatorParents[parent.Kind()] {
				out = append(out, "operator:"+kind)
				return false
			}
			return true
		}
		if valued[kind] {
			out = append(out, kind+":"+tree.Text(n))
			return false
		}
		out = append(out, kind)
		return true
	})
	return out, nil
}
