// Package escalation drives findings through an ordered ladder of proposer
// tiers, verifying every applied patch with a re-scan.
package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/proposer"
	"github.com/scan-io-git/remedy/internal/span"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

// SpanResolver selects the region handed to a proposer.
type SpanResolver interface {
	Resolve(ctx context.Context, doc *document.Document, line int) span.Span
}

// Verifier tells whether a defect class is gone from a text.
type Verifier interface {
	Verify(ctx context.Context, text, findingID string) (bool, error)
}

// Options tunes the controller.
type Options struct {
	// LineTracking is config.LineTrackingStatic or config.LineTrackingShift.
	LineTracking string
}

// Result is the outcome of a run. Traces follow the order of the input work.
type Result struct {
	Traces   []VulnerabilityTrace
	Leftover []findings.Work
}

// FixedCount returns the number of retired findings.
func (r Result) FixedCount() int {
	n := 0
	for _, t := range r.Traces {
		if t.Fixed() {
			n++
		}
	}
	return n
}

// TotalCost returns the summed cost of every trace.
func (r Result) TotalCost() float64 {
	var total float64
	for _, t := range r.Traces {
		total += t.TotalCost
	}
	return Round(total)
}

// Controller owns the escalation ladder. A Controller holds no per-run state
// and may be reused, but a document must only be passed to one Run at a time.
type Controller struct {
	tiers    []proposer.Tier
	resolver SpanResolver
	verifier Verifier
	pricing  map[string]config.Rate
	opts     Options
	logger   hclog.Logger
}

// New creates a Controller. tiers must already be ordered by level.
func New(tiers []proposer.Tier, resolver SpanResolver, verifier Verifier, pricing map[string]config.Rate, opts Options, logger hclog.Logger) *Controller {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.LineTracking == "" {
		opts.LineTracking = config.LineTrackingStatic
	}
	return &Controller{
		tiers:    tiers,
		resolver: resolver,
		verifier: verifier,
		pricing:  pricing,
		opts:     opts,
		logger:   logger.Named("escalation"),
	}
}

type item struct {
	work  findings.Work
	line  int
	open  bool
	trace *VulnerabilityTrace
}

// Run processes work against doc, mutating it in place. Patches are kept
// whether or not they verify. Run always returns a complete Result; a
// cancelled ctx stops further attempts and leaves the rest FAILED.
func (c *Controller) Run(ctx context.Context, doc *document.Document, work []findings.Work) Result {
	items := make([]*item, len(work))
	traces := make([]VulnerabilityTrace, len(work))
	for i, w := range work {
		line := w.Strategy.LineNum
		if line < 1 {
			line = w.Finding.Line()
		}
		traces[i] = VulnerabilityTrace{
			FindingID:   w.Finding.ID,
			Line:        w.Finding.Line(),
			Severity:    w.Finding.Severity,
			Confidence:  w.Finding.Confidence,
			FinalStatus: FinalFailed,
			Attempts:    []PatchAttempt{},
		}
		items[i] = &item{work: w, line: line, open: true, trace: &traces[i]}
	}

	open := items
	for _, tier := range c.tiers {
		if len(open) == 0 {
			break
		}
		if ctx.Err() != nil {
			c.logger.Warn("run cancelled", "tier", tier.Level, "open", len(open), "reason", ctx.Err())
			break
		}
		c.logger.Info("tier started", "tier", tier.Level, "name", tier.Name, "open", len(open))

		var leftover []*item
		for _, it := range open {
			if ctx.Err() != nil {
				leftover = append(leftover, it)
				continue
			}
			attempt := c.attempt(ctx, tier, doc, it, items)
			it.trace.record(attempt)
			if attempt.Status == StatusSuccess {
				it.open = false
				continue
			}
			leftover = append(leftover, it)
		}

		c.logger.Info("tier finished", "tier", tier.Level, "fixed", len(open)-len(leftover), "leftover", len(leftover))
		open = leftover
	}

	res := Result{Traces: traces}
	for _, it := range open {
		res.Leftover = append(res.Leftover, it.work)
	}
	return res
}

func (c *Controller) attempt(ctx context.Context, tier proposer.Tier, doc *document.Document, it *item, all []*item) PatchAttempt {
	start := time.Now()
	if tier.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tier.Timeout)
		defer cancel()
	}

	a := PatchAttempt{Tier: tier.Level, Model: tier.Model}
	finish := func(status Status, err error) PatchAttempt {
		a.Status = status
		if err != nil {
			a.Error = err.Error()
		}
		a.Duration = time.Since(start).Seconds()
		c.logger.Info("patch attempt finished",
			"finding_id", it.work.Finding.ID, "line", it.line, "tier", tier.Level,
			"status", a.Status, "model", a.Model, "cost", a.Cost)
		if err != nil {
			c.logger.Debug("patch attempt error", "finding_id", it.work.Finding.ID, "error", err)
		}
		return a
	}

	sp := c.resolver.Resolve(ctx, doc, it.line)
	c.logger.Debug("span resolved", "finding_id", it.work.Finding.ID, "kind", sp.Kind, "start", sp.StartLine, "end", sp.EndLine)

	p, err := tier.Proposer.Propose(ctx, sp.Text, it.work.Strategy.Text)
	if err != nil {
		return finish(failureStatus(ctx, err), err)
	}

	if p.Model != "" {
		a.Model = p.Model
	}
	a.FinishReason = p.FinishReason
	a.Tokens = Tokens{Prompt: p.PromptTokens, Completion: p.CompletionTokens, Total: p.TotalTokens()}
	a.Cost = Cost(c.pricing, a.Model, p.PromptTokens, p.CompletionTokens)

	before := doc.LineCount()
	if _, err := doc.ApplyPatch(p.Replacement, sp.StartLine, sp.EndLine); err != nil {
		return finish(StatusError, err)
	}
	if c.opts.LineTracking == config.LineTrackingShift {
		shiftLines(all, it, sp.EndLine, doc.LineCount()-before)
	}

	patched, err := c.verifier.Verify(ctx, doc.Text(), it.work.Finding.ID)
	if err != nil {
		return finish(failureStatus(ctx, err), err)
	}
	if !patched {
		return finish(StatusFailed, nil)
	}
	return finish(StatusSuccess, nil)
}

// shiftLines moves the target line of every other open item below end by delta.
func shiftLines(items []*item, current *item, end, delta int) {
	if delta == 0 {
		return
	}
	for _, it := range items {
		if it == current || !it.open || it.line <= end {
			continue
		}
		it.line += delta
	}
}

func failureStatus(ctx context.Context, err error) Status {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StatusTimeout
	}
	return StatusError
}
