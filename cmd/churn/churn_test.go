package churn

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	before = "def f(x):\n    return eval(x)\n"
	after  = "import ast\n\n\ndef f(x):\n    return ast.literal_eval(x)\n"
)

func TestValidateChurnArgs(t *testing.T) {
	assert.NoError(t, validateChurnArgs(&RunOptionsChurn{}, []string{"a.py", "b.py"}))
	assert.Error(t, validateChurnArgs(&RunOptionsChurn{}, []string{"a.py"}))
	assert.NoError(t, validateChurnArgs(&RunOptionsChurn{Rev: "HEAD"}, []string{"a.py"}))
	assert.Error(t, validateChurnArgs(&RunOptionsChurn{Rev: "HEAD"}, []string{"a.py", "b.py"}))
}

func TestBuildReportFromFiles(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "sample.py")
	fixed := filepath.Join(dir, "fixed.py")
	require.NoError(t, os.WriteFile(orig, []byte(before), 0o600))
	require.NoError(t, os.WriteFile(fixed, []byte(after), 0o600))

	opts := &RunOptionsChurn{Diff: true}
	args := []string{orig, fixed}
	a, b, err := loadVersions(opts, args)
	require.NoError(t, err)

	report, err := buildReport(context.Background(), opts, args, a, b)
	require.NoError(t, err)
	assert.Equal(t, orig, report.Original)
	assert.Equal(t, fixed, report.Final)
	assert.Greater(t, report.Churn.NormalizedLineChurn, 0)
	assert.Greater(t, report.Churn.StructuralChurn, 0)
	assert.Equal(t, 2, report.Before.SLOC)
	assert.Equal(t, 3, report.After.SLOC)
	assert.Contains(t, report.Diff, "+import ast")

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, report))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "churn")
}

func TestLoadVersionsFromRevision(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte(before), 0o644))
	_, err = wt.Add("app.py")
	require.NoError(t, err)
	_, err = wt.Commit("base", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(after), 0o644))

	opts := &RunOptionsChurn{Rev: "HEAD"}
	a, b, err := loadVersions(opts, []string{path})
	require.NoError(t, err)
	assert.Equal(t, before, a)
	assert.Equal(t, after, b)

	report, err := buildReport(context.Background(), opts, []string{path}, a, b)
	require.NoError(t, err)
	assert.Equal(t, path+"@HEAD", report.Original)
	assert.Empty(t, report.Diff)
}
