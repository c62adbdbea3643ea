package remediate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/internal/pipeline"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))
}

func TestValidateRemediateArgs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	touch(t, file)

	tests := []struct {
		name    string
		opts    RunOptionsRemediate
		args    []string
		wantErr string
	}{
		{name: "file", opts: RunOptionsRemediate{Threads: 1}, args: []string{file}},
		{name: "no args", opts: RunOptionsRemediate{Threads: 1}, wantErr: "target path"},
		{name: "threads", opts: RunOptionsRemediate{Threads: 0}, args: []string{file}, wantErr: "threads"},
		{name: "missing", opts: RunOptionsRemediate{Threads: 1}, args: []string{filepath.Join(dir, "nope.py")}, wantErr: "does not exist"},
		{name: "since with file", opts: RunOptionsRemediate{Threads: 1, Since: "HEAD~1"}, args: []string{file}, wantErr: "requires a folder"},
		{name: "since with two paths", opts: RunOptionsRemediate{Threads: 1, Since: "HEAD~1"}, args: []string{dir, dir}, wantErr: "exactly one"},
		{name: "since with folder", opts: RunOptionsRemediate{Threads: 1, Since: "HEAD~1"}, args: []string{dir}},
		{name: "strategies", opts: RunOptionsRemediate{Threads: 1, StrategiesDir: filepath.Join(dir, "none")}, args: []string{file}, wantErr: "strategies folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRemediateArgs(&tt.opts, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCollectTargets(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.py"))
	touch(t, filepath.Join(dir, "a.py"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "pkg", "c.py"))
	touch(t, filepath.Join(dir, ".venv", "lib.py"))
	single := filepath.Join(dir, "script")
	touch(t, single)

	targets, err := collectTargets([]string{dir, single, filepath.Join(dir, "a.py")}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.py"),
		filepath.Join(dir, "pkg", "c.py"),
		single,
	}, targets)
}

func TestToLaunchesAndPrint(t *testing.T) {
	results := []pipeline.FileResult{
		{
			Path:      "a.py",
			Status:    pipeline.StatusOK,
			FixedPath: "/out/a.py",
			Record: audit.Record{
				InputStats:      audit.CodeStats{VulnCount: 2},
				SecuritySummary: audit.SecuritySummary{FixedCount: 1},
				TotalCostUSD:    0.0125,
			},
		},
		{Path: "b.py", Status: pipeline.StatusFailed, Message: "initial scan: boom"},
	}

	launches := toLaunches(results)
	require.Len(t, launches.Launches, 2)
	assert.Equal(t, launchResult{FixedPath: "/out/a.py", VulnCount: 2, FixedCount: 1, CostUSD: 0.0125}, launches.Launches[0].Result)
	assert.Nil(t, launches.Launches[1].Result)
	assert.Equal(t, 1, countFailed(results))
	assert.Len(t, records(results), 1)

	var buf bytes.Buffer
	printResults(&buf, results)
	assert.Equal(t, "OK      a.py: fixed 1/2, new issues 0, cost $0.0125\n"+
		"FAILED  b.py: initial scan: boom\n", buf.String())
}

func TestEngineOptions(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	opts := engineOptions(cfg, &RunOptionsRemediate{Threads: 3, Diff: true, NoMetadata: true}, "/out")
	assert.Equal(t, pipeline.Options{
		Dataset:   config.DefaultDataset,
		Version:   config.DefaultVersion,
		Jobs:      3,
		OutputDir: "/out",
		WriteDiff: true,
	}, opts)
}
