// Package audit builds and persists the per-file audit record of a
// remediation run.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scan-io-git/remedy/internal/churn"
	"github.com/scan-io-git/remedy/internal/escalation"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/git"
	"github.com/scan-io-git/remedy/internal/pyast"
)

// Language is the only language remediated so far.
const Language = "python"

type Meta struct {
	RunID      string                  `json:"run_id"`
	FileID     string                  `json:"file_id"`
	Dataset    string                  `json:"dataset"`
	Version    string                  `json:"version"`
	Timestamp  string                  `json:"timestamp"`
	DurationS  float64                 `json:"duration_s"`
	Repository *git.RepositoryMetadata `json:"repository,omitempty"`
}

type CodeStats struct {
	LOC           int     `json:"loc"`
	AvgComplexity float64 `json:"avg_complexity"`
	VulnCount     int     `json:"vuln_count"`
}

type SecuritySummary struct {
	FixedCount          int       `json:"fixed_count"`
	NewIssuesIntroduced int       `json:"new_issues_introduced"`
	FinalCodeStats      CodeStats `json:"final_code_stats"`
	NormalizedLOCChurn  int       `json:"normalized_loc_churn"`
	ASTChurn            int       `json:"ast_churn"`
}

// Record is one line of the audit log.
type Record struct {
	Meta            Meta                            `json:"meta"`
	Language        string                          `json:"language"`
	InputStats      CodeStats                       `json:"input_stats"`
	SecuritySummary SecuritySummary                 `json:"security_summary"`
	TotalCostUSD    float64                         `json:"total_cost_usd"`
	Vulnerabilities []escalation.VulnerabilityTrace `json:"vulnerabilities"`
}

// Input gathers everything a record is built from.
type Input struct {
	RunID      string
	FileID     string
	Dataset    string
	Version    string
	Started    time.Time
	Duration   time.Duration
	Original   string
	Final      string
	Initial    []findings.Finding
	Remaining  []findings.Finding
	Result     escalation.Result
	Churn      churn.Result
	Repository *git.RepositoryMetadata
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Build assembles the audit record of one processed file.
func Build(ctx context.Context, in Input) Record {
	before := pyast.Metrics(ctx, in.Original)
	after := pyast.Metrics(ctx, in.Final)
	fixed := in.Result.FixedCount()

	runID := in.RunID
	if runID == "" {
		runID = NewRunID()
	}
	traces := in.Result.Traces
	if traces == nil {
		traces = []escalation.VulnerabilityTrace{}
	}

	return Record{
		Meta: Meta{
			RunID:      runID,
			FileID:     in.FileID,
			Dataset:    in.Dataset,
			Version:    in.Version,
			Timestamp:  in.Started.UTC().Format(time.RFC3339),
			DurationS:  in.Duration.Seconds(),
			Repository: in.Repository,
		},
		Language: Language,
		InputStats: CodeStats{
			LOC:           before.SLOC,
			AvgComplexity: before.AvgComplexity,
			VulnCount:     len(in.Initial),
		},
		SecuritySummary: SecuritySummary{
			FixedCount:          fixed,
			NewIssuesIntroduced: len(in.Remaining) - len(in.Initial) + fixed,
			FinalCodeStats: CodeStats{
				LOC:           after.SLOC,
				AvgComplexity: after.AvgComplexity,
				VulnCount:     len(in.Remaining),
			},
			NormalizedLOCChurn: in.Churn.NormalizedLineChurn,
			ASTChurn:           in.Churn.StructuralChurn,
		},
		TotalCostUSD:    in.Result.TotalCost(),
		Vulnerabilities: traces,
	}
}
