// Package bandit decodes the reports produced by the bandit Python security
// linter into findings.
package bandit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/remedy/internal/findings"
)

// Supported report formats.
const (
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// Result is one entry of the "results" array of a bandit JSON report.
type Result struct {
	TestID          string `json:"test_id"`
	TestName        string `json:"test_name"`
	Filename        string `json:"filename"`
	LineNumber      int    `json:"line_number"`
	LineRange       []int  `json:"line_range"`
	IssueText       string `json:"issue_text"`
	IssueSeverity   string `json:"issue_severity"`
	IssueConfidence string `json:"issue_confidence"`
	MoreInfo        string `json:"more_info"`
	Code            string `json:"code"`
}

// FileError is a file bandit failed to analyse, usually because it does not parse.
type FileError struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// ErrNotAnalysed means bandit skipped the scanned file, so the absence of
// results says nothing about it.
var ErrNotAnalysed = errors.New("bandit could not analyse the file")

// Report is a decoded bandit JSON report.
type Report struct {
	Errors  []FileError `json:"errors"`
	Results []Result    `json:"results"`
}

// Findings converts the report results in document order.
func (r *Report) Findings() []findings.Finding {
	out := make([]findings.Finding, 0, len(r.Results))
	for _, res := range r.Results {
		lines := res.LineRange
		if len(lines) == 0 && res.LineNumber > 0 {
			lines = []int{res.LineNumber}
		}
		out = append(out, findings.Finding{
			ID:         res.TestID,
			Name:       res.TestName,
			Severity:   res.IssueSeverity,
			Confidence: res.IssueConfidence,
			Message:    res.IssueText,
			LineRange:  lines,
			MoreInfo:   res.MoreInfo,
			Code:       res.Code,
		})
	}
	return out
}

// Err reports the files bandit skipped, or nil when every file was analysed.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	reasons := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		reasons = append(reasons, fmt.Sprintf("%s: %s", fe.Filename, fe.Reason))
	}
	return fmt.Errorf("%w: %s", ErrNotAnalysed, strings.Join(reasons, "; "))
}

// DecodeJSON decodes a bandit JSON report. A document that is not a JSON
// object, or that lacks the "results" key, is rejected.
func DecodeJSON(data []byte) (*Report, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid bandit json: %w", err)
	}
	if _, ok := raw["results"]; !ok {
		return nil, fmt.Errorf("invalid bandit json: missing results")
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid bandit json: %w", err)
	}
	return &report, nil
}

// ParseJSON decodes a bandit JSON report into findings. A report listing
// skipped files is an error.
func ParseJSON(data []byte) ([]findings.Finding, error) {
	report, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return report.Findings(), nil
}

// ParseSARIF decodes a bandit SARIF report into findings. Severity and
// confidence come from the result properties bandit writes, falling back to
// the SARIF level. A run whose invocation failed or raised execution
// notifications is an error.
func ParseSARIF(data []byte) ([]findings.Finding, error) {
	report, err := sarif.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid bandit sarif: %w", err)
	}
	if len(report.Runs) == 0 {
		return nil, fmt.Errorf("invalid bandit sarif: no runs")
	}

	var out []findings.Finding
	for _, run := range report.Runs {
		if err := invocationErr(run.Invocations); err != nil {
			return nil, err
		}

		rules := map[string]*sarif.ReportingDescriptor{}
		if run.Tool.Driver != nil {
			for _, rule := range run.Tool.Driver.Rules {
				rules[rule.ID] = rule
			}
		}

		for _, res := range run.Results {
			if res.RuleID == nil {
				continue
			}
			f := findings.Finding{
				ID:         *res.RuleID,
				Severity:   stringProperty(res.Properties, "issue_severity"),
				Confidence: stringProperty(res.Properties, "issue_confidence"),
			}
			if res.Message.Text != nil {
				f.Message = *res.Message.Text
			}
			if f.Severity == "" && res.Level != nil {
				f.Severity = SeverityFromLevel(*res.Level)
			}
			if rule, ok := rules[f.ID]; ok {
				if rule.Name != nil {
					f.Name = *rule.Name
				}
				if rule.HelpURI != nil {
					f.MoreInfo = *rule.HelpURI
				}
			}
			f.LineRange, f.Code = resultRegion(res)
			out = append(out, f)
		}
	}
	return out, nil
}

// Parse dispatches on the report format.
func Parse(format string, data []byte) ([]findings.Finding, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return ParseJSON(data)
	case FormatSARIF:
		return ParseSARIF(data)
	default:
		return nil, fmt.Errorf("unsupported bandit report format %q", format)
	}
}

// SeverityFromLevel maps a SARIF level to a bandit severity label.
func SeverityFromLevel(level string) string {
	switch level {
	case "error":
		return "HIGH"
	case "warning":
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// LevelFromSeverity maps a bandit severity label to a SARIF level.
func LevelFromSeverity(severity string) string {
	switch strings.ToUpper(severity) {
	case "HIGH":
		return "error"
	case "MEDIUM":
		return "warning"
	default:
		return "note"
	}
}

func invocationErr(invocations []*sarif.Invocation) error {
	var reasons []string
	for _, inv := range invocations {
		if inv == nil {
			continue
		}
		for _, n := range inv.ToolExecutionNotifications {
			if n != nil && n.Message != nil && n.Message.Text != nil {
				reasons = append(reasons, *n.Message.Text)
			} else {
				reasons = append(reasons, "execution notification")
			}
		}
		if inv.ExecutionSuccessful != nil && !*inv.ExecutionSuccessful && len(reasons) == 0 {
			reasons = append(reasons, "execution was not successful")
		}
	}
	if len(reasons) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotAnalysed, strings.Join(reasons, "; "))
}

func resultRegion(res *sarif.Result) ([]int, string) {
	for _, loc := range res.Locations {
		if loc.PhysicalLocation == nil || loc.PhysicalLocation.Region == nil {
			continue
		}
		region := loc.PhysicalLocation.Region
		if region.StartLine == nil {
			continue
		}
		start, end := *region.StartLine, *region.StartLine
		if region.EndLine != nil && *region.EndLine >= start {
			end = *region.EndLine
		}
		lines := make([]int, 0, end-start+1)
		for l := start; l <= end; l++ {
			lines = append(lines, l)
		}
		code := ""
		if region.Snippet != nil && region.Snippet.Text != nil {
			code = *region.Snippet.Text
		}
		return lines, code
	}
	return nil, ""
}

func stringProperty(props sarif.Properties, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// CommandArgs builds the bandit argument list for scanning target and
// writing a report in format to output. Findings never make bandit exit
// non-zero.
func CommandArgs(format, output, target string, additional []string) []string {
	var commandArgs []string

	appendArg := func(arg ...string) {
		commandArgs = append(commandArgs, arg...)
	}

	if len(additional) != 0 {
		appendArg(additional...)
	}
	if format == "" {
		format = FormatJSON
	}
	appendArg("-f", format, "--exit-zero", "-q")
	if output != "" {
		appendArg("-o", output)
	}
	appendArg(target)

	return commandArgs
}
