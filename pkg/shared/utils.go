package shared

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// Versions holds build information of the core binary.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// PluginMeta is the content of a plugin VERSION file.
type PluginMeta struct {
	Version    string `json:"version"`
	PluginType string `json:"plugin_type"`
}

var unknownPlugin = PluginMeta{Version: "unknown", PluginType: "unknown"}

// ReadPluginMeta parses a plugin VERSION file.
func ReadPluginMeta(path string) PluginMeta {
	data, err := os.ReadFile(path)
	if err != nil {
		return unknownPlugin
	}
	var pm PluginMeta
	if err := json.Unmarshal(data, &pm); err != nil {
		return unknownPlugin
	}
	return pm
}

// GetPluginVersions lists the plugins installed in pluginsDir. An empty
// pluginType returns every plugin.
func GetPluginVersions(pluginsDir, pluginType string) map[string]PluginMeta {
	pluginsMeta := make(map[string]PluginMeta)
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return pluginsMeta
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta := ReadPluginMeta(filepath.Join(pluginsDir, entry.Name(), "VERSION"))
		if pluginType != "" && meta.PluginType != pluginType {
			continue
		}
		pluginsMeta[entry.Name()] = meta
	}
	return pluginsMeta
}

// HasFlags reports whether any flag was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) { changed = true })
	return changed
}
