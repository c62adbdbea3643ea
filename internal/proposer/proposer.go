// Package proposer turns a code span and a remediation strategy into
// replacement code.
package proposer

import (
	"context"
	"regexp"
	"strings"
)

// Proposal is a replacement block and the usage metadata of producing it.
type Proposal struct {
	Replacement      string
	Model            string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

// TotalTokens returns prompt plus completion tokens.
func (p Proposal) TotalTokens() int {
	return p.PromptTokens + p.CompletionTokens
}

// Proposer produces replacement code for a span. Failures are returned as
// errors matching errors.ErrProposer.
type Proposer interface {
	Propose(ctx context.Context, spanText, strategyText string) (Proposal, error)
}

// Func adapts a function to the Proposer interface.
type Func func(ctx context.Context, spanText, strategyText string) (Proposal, error)

// Propose calls f.
func (f Func) Propose(ctx context.Context, spanText, strategyText string) (Proposal, error) {
	return f(ctx, spanText, strategyText)
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*[ \t]*\r?\n(.*?)```")

// CleanCode removes markdown code fences and surrounding blank lines from
// model output. Indentation of the first code line is preserved.
func CleanCode(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = strings.ReplaceAll(s, "```python", "")
		s = strings.ReplaceAll(s, "```", "")
	}
	return trimBlankLines(s)
}

// Reindent shifts block right so that an unindented replacement lines up
// with the indentation of the span it replaces. Blocks that already carry
// indentation are returned unchanged.
func Reindent(block, span string) string {
	want := leadingIndent(firstCodeLine(span))
	if want == "" || minIndentWidth(block) > 0 {
		return block
	}

	lines := strings.SplitAfter(block, "\n")
	var b strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			b.WriteString(want)
		}
		b.WriteString(line)
	}
	return b.String()
}

func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	out := lines[start:end]
	for i, line := range out {
		out[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(out, "\n")
}

func firstCodeLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func leadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// minIndentWidth returns the smallest indentation width over non-blank lines.
func minIndentWidth(block string) int {
	width := -1
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w := len(leadingIndent(line))
		if width < 0 || w < width {
			width = w
		}
	}
	if width < 0 {
		return 0
	}
	return width
}
