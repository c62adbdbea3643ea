package audit

import (
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/remedy/internal/escalation"
	"github.com/scan-io-git/remedy/pkg/bandit"
)

const (
	sarifToolName = "remedy"
	sarifToolURI  = "https://github.com/scan-io-git/remedy"
)

// ToSARIF reports every finding left unresolved by the records as a SARIF
// result located at its original line.
func ToSARIF(records []Record) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(sarifToolName, sarifToolURI)

	for _, rec := range records {
		for _, v := range rec.Vulnerabilities {
			if v.FinalStatus == escalation.FinalFixed {
				continue
			}
			run.AddRule(v.FindingID).WithName(v.FindingID)

			line := max(v.Line, 1)
			result := run.CreateResultForRule(v.FindingID).
				WithLevel(bandit.LevelFromSeverity(v.Severity)).
				WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s not remediated after %d attempt(s)", v.FindingID, len(v.Attempts))))
			result.AddLocation(sarif.NewLocationWithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewSimpleArtifactLocation(rec.Meta.FileID)).
					WithRegion(sarif.NewSimpleRegion(line, line)),
			))
			result.Properties = sarif.Properties{
				"issue_severity":   v.Severity,
				"issue_confidence": v.Confidence,
				"run_id":           rec.Meta.RunID,
				"total_cost_usd":   v.TotalCost,
			}
		}
	}

	report.AddRun(run)
	return report, nil
}
