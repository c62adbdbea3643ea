// Package span selects the minimal region of a document to hand to a proposer.
package span

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/pyast"
)

// Kind tells how a span was selected.
type Kind string

const (
	KindDefinition Kind = "definition"
	KindWindow     Kind = "window"
)

// DefaultRadius is the default half-height of the fallback window.
const DefaultRadius = 5

// Span is a 1-based inclusive line range of a document together with its text.
type Span struct {
	Kind      Kind   `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

// Resolver maps a target line to the innermost enclosing function
// definition, falling back to a fixed window around the line.
type Resolver struct {
	radius int
	logger hclog.Logger
}

// NewResolver creates a Resolver with the given fallback window radius.
func NewResolver(radius int, logger hclog.Logger) *Resolver {
	if radius < 0 {
		radius = DefaultRadius
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{radius: radius, logger: logger}
}

// Resolve never fails: parse errors and lines outside any definition yield
// the fallback window.
func (r *Resolver) Resolve(ctx context.Context, doc *document.Document, line int) Span {
	tree, err := pyast.Parse(ctx, doc.Text())
	if tree != nil {
		defer tree.Close()
	}
	if err != nil {
		r.logger.Debug("falling back to window", "line", line, "reason", err)
		return r.Window(doc, line)
	}

	def, ok := Innermost(tree.Functions(), line)
	if !ok {
		return r.Window(doc, line)
	}
	return Span{
		Kind:      KindDefinition,
		StartLine: def.StartLine,
		EndLine:   def.EndLine,
		Text:      doc.Slice(def.StartLine, def.EndLine),
	}
}

// Window returns the radius-bounded window centered on line, clamped to the
// document. An empty document yields the single line 1.
func (r *Resolver) Window(doc *document.Document, line int) Span {
	n := doc.LineCount()
	if n < 1 {
		n = 1
	}
	center := clamp(line, 1, n)
	start := clamp(center-r.radius, 1, n)
	end := clamp(center+r.radius, 1, n)
	return Span{
		Kind:      KindWindow,
		StartLine: start,
		EndLine:   end,
		Text:      doc.Slice(start, end),
	}
}

// Innermost picks, among the definitions containing line, the one nested
// inside every other containing definition. The result does not depend on
// the order of defs.
func Innermost(defs []pyast.Definition, line int) (pyast.Definition, bool) {
	var candidates []pyast.Definition
	for _, d := range defs {
		if d.Contains(line) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return pyast.Definition{}, false
	}

	for _, c := range candidates {
		nested := true
		for _, o := range candidates {
			if !c.Within(o) {
				nested = false
				break
			}
		}
		if nested {
			return c, true
		}
	}

	// Overlapping but unnested ranges cannot come from one tree; pick the
	// smallest, earliest range.
	best := candidates[0]
	for _, c := range candidates[1:] {
		size, bestSize := c.EndLine-c.StartLine, best.EndLine-best.StartLine
		if size < bestSize || (size == bestSize && c.StartLine < best.StartLine) {
			best = c
		}
	}
	return best, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
