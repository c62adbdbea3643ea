package version

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// CoreVersions holds version information for the core application and plugins.
type CoreVersions struct {
	Versions    shared.Versions              `json:"versions"`
	PluginsMeta map[string]shared.PluginMeta `json:"plugins_meta"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and plugins",
		Run: func(cmd *cobra.Command, args []string) {
			version := CoreVersions{
				Versions: shared.Versions{
					Version:       CoreVersion,
					GolangVersion: GolangVersion,
					BuildTime:     BuildTime,
				},
				PluginsMeta: shared.GetPluginVersions(config.GetRemedyPluginsHome(AppConfig), ""),
			}
			fmt.Fprint(cmd.OutOrStdout(), formatVersionInfo(&version))
		},
	}
}

// formatVersionInfo renders the version information for the core application and plugins.
func formatVersionInfo(versions *CoreVersions) string {
	out := fmt.Sprintf("Core Version: v%s\n", versions.Versions.Version)
	out += "Plugin Versions:\n"

	names := make([]string, 0, len(versions.PluginsMeta))
	for name := range versions.PluginsMeta {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		meta := versions.PluginsMeta[name]
		out += fmt.Sprintf("  %s: v%s (Type: %s)\n", name, meta.Version, meta.PluginType)
	}
	out += fmt.Sprintf("Go Version: %s\n", versions.Versions.GolangVersion)
	out += fmt.Sprintf("Build Time: %s\n", versions.Versions.BuildTime)
	return out
}
