// Package strategist produces remediation guidance for findings before the
// escalation loop starts.
package strategist

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/pkg/shared/files"
)

// Generator produces one strategy per finding, in input order.
type Generator interface {
	Generate(ctx context.Context, doc *document.Document, fs []findings.Finding) ([]findings.Strategy, error)
}

var docsVersion = regexp.MustCompile(`/en/[0-9]+(?:\.[0-9]+)*/`)

// LatestDocsURL points a versioned bandit documentation link at "latest".
func LatestDocsURL(url string) string {
	return docsVersion.ReplaceAllString(url, "/en/latest/")
}

// Message builds strategies offline from the finding's own text.
type Message struct{}

// Generate implements Generator.
func (Message) Generate(_ context.Context, _ *document.Document, fs []findings.Finding) ([]findings.Strategy, error) {
	out := make([]findings.Strategy, 0, len(fs))
	for _, f := range fs {
		out = append(out, newStrategy(f, describe(f)))
	}
	return out, nil
}

func describe(f findings.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s", f.ID, f.Name, f.Message)
	if f.Severity != "" || f.Confidence != "" {
		fmt.Fprintf(&b, "\nSeverity: %s, confidence: %s.", f.Severity, f.Confidence)
	}
	if f.MoreInfo != "" {
		fmt.Fprintf(&b, "\nReference: %s", LatestDocsURL(f.MoreInfo))
	}
	b.WriteString("\nReplace the insecure construct with a safe equivalent without changing behaviour.")
	return b.String()
}

func newStrategy(f findings.Finding, text string) findings.Strategy {
	return findings.Strategy{
		FindingID:  f.ID,
		LineNum:    f.Line(),
		Text:       text,
		Severity:   f.Severity,
		Confidence: f.Confidence,
	}
}

// LoadFile reads strategies from a JSON array file.
func LoadFile(path string) ([]findings.Strategy, error) {
	data, err := files.ReadText(path)
	if err != nil {
		return nil, err
	}
	var out []findings.Strategy
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("failed to decode strategies from %q: %w", path, err)
	}
	return out, nil
}

// Bind pairs every finding with its strategy. Strategies are matched by
// defect class and line, in order; findings without one get an offline
// message strategy.
func Bind(fs []findings.Finding, strategies []findings.Strategy) []findings.Work {
	used := make([]bool, len(strategies))
	work := make([]findings.Work, 0, len(fs))

	for _, f := range fs {
		var bound *findings.Strategy
		for i := range strategies {
			s := strategies[i]
			if used[i] || s.FindingID != f.ID || (s.LineNum != 0 && s.LineNum != f.Line()) {
				continue
			}
			used[i] = true
			bound = &strategies[i]
			break
		}
		if bound == nil {
			s := newStrategy(f, describe(f))
			bound = &s
		}
		work = append(work, findings.Work{Finding: f, Strategy: *bound})
	}
	return work
}
