package escalation

import (
	"math"

	"github.com/scan-io-git/remedy/pkg/shared/config"
)

// Status is the outcome of one patch attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusError   Status = "ERROR"
	StatusTimeout Status = "TIMEOUT"
)

// FinalStatus is the outcome of a finding after the last tier.
type FinalStatus string

const (
	FinalFixed  FinalStatus = "FIXED"
	FinalFailed FinalStatus = "FAILED"
)

// Tokens is the token usage of one proposer call.
type Tokens struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// PatchAttempt records one (finding, tier) attempt. Duration is in seconds.
type PatchAttempt struct {
	Tier         int     `json:"tier"`
	Model        string  `json:"proposer_model"`
	Status       Status  `json:"status"`
	FinishReason string  `json:"finish_reason"`
	Tokens       Tokens  `json:"tokens"`
	Cost         float64 `json:"cost"`
	Duration     float64 `json:"duration"`
	Error        string  `json:"error,omitempty"`
}

// VulnerabilityTrace aggregates the attempts made for one finding instance.
type VulnerabilityTrace struct {
	FindingID   string         `json:"finding_id"`
	Line        int            `json:"line"`
	Severity    string         `json:"severity"`
	Confidence  string         `json:"confidence"`
	FinalStatus FinalStatus    `json:"final_status"`
	FixedAtTier *int           `json:"fixed_at_tier"`
	TotalTime   float64        `json:"total_time"`
	TotalCost   float64        `json:"total_cost"`
	Attempts    []PatchAttempt `json:"attempts"`
}

// Fixed reports whether the finding was retired by a verified patch.
func (t VulnerabilityTrace) Fixed() bool {
	return t.FinalStatus == FinalFixed
}

func (t *VulnerabilityTrace) record(a PatchAttempt) {
	t.Attempts = append(t.Attempts, a)
	t.TotalTime += a.Duration
	t.TotalCost = Round(t.TotalCost + a.Cost)
	if a.Status == StatusSuccess {
		tier := a.Tier
		t.FixedAtTier = &tier
		t.FinalStatus = FinalFixed
	}
}

// Cost prices a proposer call with the per-million-token rates of model.
// Unknown models cost nothing.
func Cost(pricing map[string]config.Rate, model string, promptTokens, completionTokens int) float64 {
	rate, ok := pricing[model]
	if !ok {
		return 0
	}
	return Round(float64(promptTokens)/1e6*rate.Input + float64(completionTokens)/1e6*rate.Output)
}

// Round rounds a USD amount to six decimals.
func Round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
