package gate

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
)

func writeLog(t *testing.T, recs ...audit.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink := audit.NewJSONL(path)
	for _, rec := range recs {
		require.NoError(t, sink.Write(t.Context(), rec))
	}
	return path
}

func record(fileID string, vulns, fixed int) audit.Record {
	return audit.Record{
		Meta:            audit.Meta{FileID: fileID},
		InputStats:      audit.CodeStats{VulnCount: vulns},
		SecuritySummary: audit.SecuritySummary{FixedCount: fixed},
	}
}

func TestRunGateCommand(t *testing.T) {
	AppConfig = &config.Config{}
	config.ApplyDefaults(AppConfig)

	path := writeLog(t, record("clean.py", 1, 1), record("partial.py", 2, 1))

	tests := []struct {
		name     string
		expr     string
		wantCode int
		wantOut  string
	}{
		{name: "all fixed", expr: "record.security_summary.fixed_count == record.input_stats.vuln_count", wantCode: 2, wantOut: "FAILED  partial.py\n"},
		{name: "some fixed", expr: "record.security_summary.fixed_count > 0", wantOut: "all 2 records passed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateOptions = RunOptionsGate{Expr: tt.expr}
			var buf bytes.Buffer
			GateCmd.SetOut(&buf)

			err := runGateCommand(GateCmd, []string{path})
			assert.Equal(t, tt.wantOut, buf.String())
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			var cmdErr *serrors.CommandError
			require.True(t, errors.As(err, &cmdErr))
			assert.Equal(t, tt.wantCode, cmdErr.ExitCode)
		})
	}
}

func TestRunGateCommandNeedsExpression(t *testing.T) {
	AppConfig = &config.Config{}
	gateOptions = RunOptionsGate{}

	err := runGateCommand(GateCmd, nil)
	assert.ErrorContains(t, err, "expr")
}
