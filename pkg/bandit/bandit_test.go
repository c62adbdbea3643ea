package bandit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonReport = `{
  "errors": [],
  "generated_at": "2024-05-01T10:00:00Z",
  "metrics": {},
  "results": [
    {
      "code": "10     return eval(user_input)\n",
      "filename": "/tmp/remedy-1/source.py",
      "issue_confidence": "HIGH",
      "issue_cwe": {"id": 78, "link": "https://cwe.mitre.org/data/definitions/78.html"},
      "issue_severity": "MEDIUM",
      "issue_text": "Use of possibly insecure function - consider using safer ast.literal_eval.",
      "line_number": 10,
      "line_range": [10],
      "more_info": "https://bandit.readthedocs.io/en/latest/blacklists/blacklist_calls.html#b307-eval",
      "test_id": "B307",
      "test_name": "blacklist"
    },
    {
      "code": "3 import subprocess\n",
      "filename": "/tmp/remedy-1/source.py",
      "issue_confidence": "HIGH",
      "issue_severity": "LOW",
      "issue_text": "Consider possible security implications associated with the subprocess module.",
      "line_number": 3,
      "more_info": "https://bandit.readthedocs.io/en/latest/blacklists/blacklist_imports.html#b404-import-subprocess",
      "test_id": "B404",
      "test_name": "blacklist"
    }
  ]
}`

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON([]byte(jsonReport))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "B307", got[0].ID)
	assert.Equal(t, "blacklist", got[0].Name)
	assert.Equal(t, "MEDIUM", got[0].Severity)
	assert.Equal(t, "HIGH", got[0].Confidence)
	assert.Equal(t, []int{10}, got[0].LineRange)
	assert.Equal(t, 10, got[0].Line())
	assert.Contains(t, got[0].MoreInfo, "b307-eval")

	// line_range missing: fall back to line_number
	assert.Equal(t, []int{3}, got[1].LineRange)
}

func TestParseJSONRejectsInvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "garbage", input: "{{{{"},
		{name: "empty", input: ""},
		{name: "progress text", input: "[main]  INFO  running on Python 3.11\n"},
		{name: "no results key", input: `{"errors": []}`},
		{name: "array", input: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseJSONEmptyResults(t *testing.T) {
	got, err := ParseJSON([]byte(`{"errors": [], "results": []}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

const skippedReport = `{"errors": [{"filename": "source.py", "reason": "syntax error while parsing AST from file"}], "results": []}`

func TestDecodeJSONKeepsFileErrors(t *testing.T) {
	report, err := DecodeJSON([]byte(skippedReport))
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "source.py", report.Errors[0].Filename)
	assert.ErrorIs(t, report.Err(), ErrNotAnalysed)
}

func TestParseJSONRejectsSkippedFile(t *testing.T) {
	got, err := ParseJSON([]byte(skippedReport))
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAnalysed))
	assert.Contains(t, err.Error(), "syntax error while parsing AST")
}

const sarifReport = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {
        "driver": {
          "name": "Bandit",
          "rules": [
            {"id": "B307", "name": "blacklist", "helpUri": "https://bandit.readthedocs.io/en/latest/blacklists/blacklist_calls.html#b307-eval"}
          ]
        }
      },
      "results": [
        {
          "ruleId": "B307",
          "level": "warning",
          "message": {"text": "Use of possibly insecure function - consider using safer ast.literal_eval."},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "source.py"},
                "region": {"startLine": 10, "endLine": 11, "snippet": {"text": "return eval(user_input)\n"}}
              }
            }
          ],
          "properties": {"issue_confidence": "HIGH", "issue_severity": "MEDIUM"}
        },
        {
          "ruleId": "B105",
          "level": "error",
          "message": {"text": "Possible hardcoded password"},
          "locations": [{"physicalLocation": {"region": {"startLine": 2}}}]
        }
      ]
    }
  ]
}`

func TestParseSARIF(t *testing.T) {
	got, err := ParseSARIF([]byte(sarifReport))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "B307", got[0].ID)
	assert.Equal(t, "blacklist", got[0].Name)
	assert.Equal(t, "MEDIUM", got[0].Severity)
	assert.Equal(t, "HIGH", got[0].Confidence)
	assert.Equal(t, []int{10, 11}, got[0].LineRange)
	assert.Equal(t, "return eval(user_input)\n", got[0].Code)
	assert.Contains(t, got[0].MoreInfo, "b307-eval")

	assert.Equal(t, "B105", got[1].ID)
	assert.Equal(t, "HIGH", got[1].Severity)
	assert.Equal(t, []int{2}, got[1].LineRange)
}

func TestParseSARIFRejectsInvalidOutput(t *testing.T) {
	_, err := ParseSARIF([]byte("not sarif"))
	assert.Error(t, err)

	_, err = ParseSARIF([]byte(`{"version": "2.1.0", "runs": []}`))
	assert.Error(t, err)
}

func TestParseSARIFRejectsFailedInvocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "notification",
			input: `{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "Bandit"}}, "invocations": [{"executionSuccessful": true, "toolExecutionNotifications": [{"level": "error", "message": {"text": "syntax error while parsing AST from file"}}]}], "results": []}]}`,
			want:  "syntax error",
		},
		{
			name:  "unsuccessful",
			input: `{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "Bandit"}}, "invocations": [{"executionSuccessful": false}], "results": []}]}`,
			want:  "not successful",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSARIF([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotAnalysed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	got, err := ParseSARIF([]byte(`{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "Bandit"}}, "invocations": [{"executionSuccessful": true}], "results": []}]}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse(t *testing.T) {
	got, err := Parse("JSON", []byte(jsonReport))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Parse("xml", []byte(jsonReport))
	assert.Error(t, err)
}

func TestSeverityLevelMapping(t *testing.T) {
	tests := []struct {
		severity string
		level    string
	}{
		{"HIGH", "error"},
		{"MEDIUM", "warning"},
		{"LOW", "note"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFromSeverity(tt.severity))
		assert.Equal(t, tt.severity, SeverityFromLevel(tt.level))
	}
	assert.Equal(t, "note", LevelFromSeverity("UNDEFINED"))
}

func TestCommandArgs(t *testing.T) {
	got := CommandArgs("", "/tmp/out.json", "/tmp/source.py", []string{"--skip", "B101"})
	assert.Equal(t, []string{"--skip", "B101", "-f", "json", "--exit-zero", "-q", "-o", "/tmp/out.json", "/tmp/source.py"}, got)

	got = CommandArgs(FormatSARIF, "", "source.py", nil)
	assert.Equal(t, []string{"-f", "sarif", "--exit-zero", "-q", "source.py"}, got)
}
