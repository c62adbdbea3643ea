package version

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/remedy/pkg/shared"
)

func TestFormatVersionInfo(t *testing.T) {
	out := formatVersionInfo(&CoreVersions{
		Versions: shared.Versions{Version: "1.0.0", GolangVersion: "go1.25.1", BuildTime: "now"},
		PluginsMeta: map[string]shared.PluginMeta{
			"semgrep": {Version: "0.1.0", PluginType: "scanner"},
			"bandit":  {Version: "1.0.0", PluginType: "scanner"},
		},
	})

	assert.Equal(t, "Core Version: v1.0.0\n"+
		"Plugin Versions:\n"+
		"  bandit: v1.0.0 (Type: scanner)\n"+
		"  semgrep: v0.1.0 (Type: scanner)\n"+
		"Go Version: go1.25.1\n"+
		"Build Time: now\n", out)
}
