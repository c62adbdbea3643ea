package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/cmd/churn"
	"github.com/scan-io-git/remedy/cmd/gate"
	"github.com/scan-io-git/remedy/cmd/remediate"
	"github.com/scan-io-git/remedy/cmd/report"
	"github.com/scan-io-git/remedy/cmd/version"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
)

const defaultConfigFile = "config.yml"

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "remedy [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Remedy patches static analysis findings in Python code with tiered language models.",
		Long: `Remedy scans Python files, asks a ladder of language model tiers for patches,
	verifies every patch by re-scanning and records an audit trail of cost and churn.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $REMEDY_CONFIG or ./config.yml)")

	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(remediate.RemediateCmd)
	rootCmd.AddCommand(churn.ChurnCmd)
	rootCmd.AddCommand(report.ReportCmd)
	rootCmd.AddCommand(gate.GateCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)

		var cmdErr *serrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	path, allowMissing := resolveConfigPath(cfgFile)
	AppConfig, err = config.LoadConfig(path, allowMissing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	version.Init(AppConfig)
	remediate.Init(AppConfig)
	churn.Init(AppConfig)
	report.Init(AppConfig)
	gate.Init(AppConfig)
}

// resolveConfigPath picks the flag, then REMEDY_CONFIG, then the default
// file. Only the default file may be absent.
func resolveConfigPath(flag string) (string, bool) {
	if flag != "" {
		return flag, false
	}
	if env := os.Getenv("REMEDY_CONFIG"); env != "" {
		return env, false
	}
	return defaultConfigFile, true
}
