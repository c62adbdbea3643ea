package audit

import (
	"sort"

	"github.com/scan-io-git/remedy/internal/escalation"
)

// Ratio is a success count over a total.
type Ratio struct {
	Hit   int `json:"hit"`
	Total int `json:"total"`
}

// Percent returns the ratio in percent, 0 for an empty total.
func (r Ratio) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hit) / float64(r.Total) * 100
}

// FindingRate is the fix rate of one defect class.
type FindingRate struct {
	ID string `json:"id"`
	Ratio
}

// Summary aggregates a set of audit records. Files without initial findings
// are loaded but not analyzed.
type Summary struct {
	FilesLoaded        int              `json:"files_loaded"`
	FilesAnalyzed      int              `json:"files_analyzed"`
	Vulnerabilities    Ratio            `json:"vulnerabilities"`
	Files              Ratio            `json:"files"`
	Tiers              map[int]Ratio    `json:"tiers"`
	AvgTokensPerFix    float64          `json:"avg_tokens_per_fix"`
	CostPerFix         float64          `json:"cost_per_fix"`
	AvgLOCChurn        float64          `json:"avg_loc_churn"`
	AvgASTChurn        float64          `json:"avg_ast_churn"`
	AvgComplexityDelta float64          `json:"avg_complexity_delta"`
	Severity           map[string]Ratio `json:"severity"`
	ByFinding          []FindingRate    `json:"by_finding"`
}

// TierLevels returns the tier levels present in the summary, ascending.
func (s Summary) TierLevels() []int {
	levels := make([]int, 0, len(s.Tiers))
	for l := range s.Tiers {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// SeverityLevels returns the severities present in the summary, sorted.
func (s Summary) SeverityLevels() []string {
	levels := make([]string, 0, len(s.Severity))
	for l := range s.Severity {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels
}

// Summarize computes the effectiveness, cost and quality metrics of records.
func Summarize(records []Record) Summary {
	s := Summary{
		FilesLoaded: len(records),
		Tiers:       map[int]Ratio{},
		Severity:    map[string]Ratio{},
	}

	var (
		cost                        float64
		locChurn, astChurn, ccDelta float64
		successTokens, successCount int
		byID                        = map[string]Ratio{}
	)

	for _, rec := range records {
		if rec.InputStats.VulnCount <= 0 {
			continue
		}
		s.FilesAnalyzed++

		sum := rec.SecuritySummary
		s.Vulnerabilities.Total += rec.InputStats.VulnCount
		s.Vulnerabilities.Hit += sum.FixedCount
		s.Files.Total++
		if sum.FixedCount == rec.InputStats.VulnCount {
			s.Files.Hit++
		}

		cost += rec.TotalCostUSD
		locChurn += float64(sum.NormalizedLOCChurn)
		astChurn += float64(sum.ASTChurn)
		ccDelta += sum.FinalCodeStats.AvgComplexity - rec.InputStats.AvgComplexity

		for _, v := range rec.Vulnerabilities {
			fixed := 0
			if v.FinalStatus == escalation.FinalFixed {
				fixed = 1
			}
			sev := s.Severity[v.Severity]
			s.Severity[v.Severity] = Ratio{Hit: sev.Hit + fixed, Total: sev.Total + 1}
			id := byID[v.FindingID]
			byID[v.FindingID] = Ratio{Hit: id.Hit + fixed, Total: id.Total + 1}

			for _, a := range v.Attempts {
				ok := 0
				if a.Status == escalation.StatusSuccess {
					ok = 1
					successTokens += a.Tokens.Total
					successCount++
				}
				t := s.Tiers[a.Tier]
				s.Tiers[a.Tier] = Ratio{Hit: t.Hit + ok, Total: t.Total + 1}
			}
		}
	}

	if s.FilesAnalyzed > 0 {
		n := float64(s.FilesAnalyzed)
		s.AvgLOCChurn = locChurn / n
		s.AvgASTChurn = astChurn / n
		s.AvgComplexityDelta = ccDelta / n
	}
	if successCount > 0 {
		s.AvgTokensPerFix = float64(successTokens) / float64(successCount)
	}
	if s.Vulnerabilities.Hit > 0 {
		s.CostPerFix = cost / float64(s.Vulnerabilities.Hit)
	}

	for id, r := range byID {
		s.ByFinding = append(s.ByFinding, FindingRate{ID: id, Ratio: r})
	}
	sort.Slice(s.ByFinding, func(i, j int) bool {
		a, b := s.ByFinding[i], s.ByFinding[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Percent() != b.Percent() {
			return a.Percent() > b.Percent()
		}
		return a.ID < b.ID
	})
	return s
}
