package churn

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/scan-io-git/remedy/internal/document"
)

// contextLines is the number of unchanged lines around each hunk.
const contextLines = 3

// UnifiedDiff renders the change from a to b as a unified diff of name.
// Identical texts yield an empty string.
func UnifiedDiff(name, a, b string) (string, error) {
	if a == b {
		return "", nil
	}
	al, bl := terminated(a), terminated(b)

	m := difflib.NewMatcherWithJunk(al, bl, false, nil)
	var hunks []*diff.Hunk
	for _, group := range m.GetGroupedOpCodes(contextLines) {
		first, last := group[0], group[len(group)-1]
		h := &diff.Hunk{
			OrigStartLine: hunkStart(first.I1, last.I2),
			OrigLines:     int32(last.I2 - first.I1),
			NewStartLine:  hunkStart(first.J1, last.J2),
			NewLines:      int32(last.J2 - first.J1),
		}

		var body strings.Builder
		for _, op := range group {
			if op.Tag == 'e' {
				writeLines(&body, " ", al[op.I1:op.I2])
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				writeLines(&body, "-", al[op.I1:op.I2])
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				writeLines(&body, "+", bl[op.J1:op.J2])
			}
		}
		h.Body = []byte(body.String())
		hunks = append(hunks, h)
	}

	out, err := diff.PrintFileDiff(&diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
		Hunks:    hunks,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render diff for %s: %w", name, err)
	}
	return string(out), nil
}

// hunkStart follows the unified format: empty ranges start at the line before.
func hunkStart(from, to int) int32 {
	if to == from {
		return int32(from)
	}
	return int32(from + 1)
}

func terminated(text string) []string {
	lines := document.SplitLines(text)
	for i, l := range lines {
		if !strings.HasSuffix(l, "\n") {
			lines[i] = l + "\n"
		}
	}
	return lines
}

func writeLines(b *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		b.WriteString(prefix)
		b.WriteString(l)
	}
}
