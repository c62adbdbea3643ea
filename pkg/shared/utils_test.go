package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPluginVersions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bandit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bandit", "VERSION"), []byte(`{"version":"1.2.0","plugin_type":"scanner"}`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o600))

	all := GetPluginVersions(dir, "")
	assert.Equal(t, PluginMeta{Version: "1.2.0", PluginType: "scanner"}, all["bandit"])
	assert.Equal(t, unknownPlugin, all["broken"])
	assert.NotContains(t, all, "stray.txt")

	scanners := GetPluginVersions(dir, PluginTypeScanner)
	assert.Len(t, scanners, 1)

	assert.Empty(t, GetPluginVersions(filepath.Join(dir, "absent"), ""))
}

func TestHasFlags(t *testing.T) {
	fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
	fs.Bool("diff", false, "")
	require.NoError(t, fs.Parse(nil))
	assert.False(t, HasFlags(fs))

	require.NoError(t, fs.Parse([]string{"--diff"}))
	assert.True(t, HasFlags(fs))
}
