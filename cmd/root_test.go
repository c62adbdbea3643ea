package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("REMEDY_CONFIG", "")
	path, allowMissing := resolveConfigPath("")
	assert.Equal(t, defaultConfigFile, path)
	assert.True(t, allowMissing)

	t.Setenv("REMEDY_CONFIG", "/etc/remedy.toml")
	path, allowMissing = resolveConfigPath("")
	assert.Equal(t, "/etc/remedy.toml", path)
	assert.False(t, allowMissing)

	path, allowMissing = resolveConfigPath("custom.yml")
	assert.Equal(t, "custom.yml", path)
	assert.False(t, allowMissing)
}
