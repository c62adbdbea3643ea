// Package findings holds the scanner-facing domain model shared by the
// remediation engine.
package findings

// Finding is one defect reported by a scanner. ID is the defect class
// (for bandit, the test id such as "B307"), so several findings in one file
// may share it.
type Finding struct {
	ID         string `json:"test_id"`
	Name       string `json:"test_name"`
	Severity   string `json:"issue_severity"`
	Confidence string `json:"issue_confidence"`
	Message    string `json:"issue_text"`
	LineRange  []int  `json:"line_range"`
	MoreInfo   string `json:"more_info,omitempty"`
	Code       string `json:"code,omitempty"`
}

// Line returns the first line of the finding, or 0 when the range is empty.
func (f Finding) Line() int {
	if len(f.LineRange) == 0 {
		return 0
	}
	return f.LineRange[0]
}

// Strategy is remediation guidance bound to one finding instance and line.
type Strategy struct {
	FindingID  string `json:"vuln_id"`
	LineNum    int    `json:"line_num"`
	Text       string `json:"strategy"`
	Severity   string `json:"severity,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

// Work binds a finding to its strategy. The controller processes one Work
// item per finding instance.
type Work struct {
	Finding  Finding
	Strategy Strategy
}

// Contains reports whether any finding carries the id.
func Contains(fs []Finding, id string) bool {
	for _, f := range fs {
		if f.ID == id {
			return true
		}
	}
	return false
}
