package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/remedy/internal/audit"
)

func TestSeverityLabel(t *testing.T) {
	tests := map[string]string{
		"MEDIUM": "Medium",
		"high":   "High",
		" LOW ":  "Low",
		"":       "Unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, severityLabel(in), in)
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true

	s := audit.Summary{
		FilesLoaded:        3,
		FilesAnalyzed:      2,
		Vulnerabilities:    audit.Ratio{Hit: 3, Total: 4},
		Files:              audit.Ratio{Hit: 1, Total: 2},
		Tiers:              map[int]audit.Ratio{1: {Hit: 2, Total: 4}, 2: {Hit: 1, Total: 2}},
		AvgTokensPerFix:    1250,
		CostPerFix:         0.0042,
		AvgLOCChurn:        1.5,
		AvgASTChurn:        4,
		AvgComplexityDelta: 0.25,
		Severity:           map[string]audit.Ratio{"MEDIUM": {Hit: 2, Total: 2}, "HIGH": {Hit: 1, Total: 2}},
		ByFinding:          []audit.FindingRate{{ID: "B307", Ratio: audit.Ratio{Hit: 2, Total: 3}}},
	}

	var buf bytes.Buffer
	render(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "Dataset: Loaded 3 files. Analyzed 2 (Excluded 1 with 0 vulns).")
	assert.Contains(t, out, "Vulnerability Fix Rate:   75.00% (3/4)")
	assert.Contains(t, out, "Level 1 Success Rate:    50.00% (2/4)")
	assert.Contains(t, out, "Level 2 Success Rate:    50.00% (1/2)")
	assert.Contains(t, out, "Avg Tokens per Fix:       1250")
	assert.Contains(t, out, "Avg Cost per Fix (CPF):   $0.0042")
	assert.Contains(t, out, "Avg Complexity Change:    +0.25")
	assert.Contains(t, out, "High       50.00% (1/2)")
	assert.Contains(t, out, "Medium     100.00% (2/2)")
	assert.Contains(t, out, "B307                 | 66.7%    | 3    ")
}

func TestRenderEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	render(&buf, audit.Summarize(nil))
	assert.Equal(t, "Dataset: Loaded 0 files. Analyzed 0 (Excluded 0 with 0 vulns).\nNo valid data to analyze.\n", buf.String())
}
