package churn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/internal/churn"
	"github.com/scan-io-git/remedy/internal/git"
	"github.com/scan-io-git/remedy/internal/pyast"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	"github.com/scan-io-git/remedy/pkg/shared/files"
	"github.com/scan-io-git/remedy/pkg/shared/logger"
)

// RunOptionsChurn holds the arguments for the churn command.
type RunOptionsChurn struct {
	Rev  string
	Diff bool
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	churnOptions      RunOptionsChurn
	exampleChurnUsage = `  # Comparing an original file with its remediated copy
  remedy churn /path/to/sample.py /path/to/fixed/sample.py

  # Comparing a working tree file with its committed version and printing the diff
  remedy churn --rev HEAD --diff /path/to/repository/app.py`
)

// ChurnCmd represents the churn command.
var ChurnCmd = &cobra.Command{
	Use:                   "churn [--rev REV] [--diff] {ORIGINAL FINAL | FILE}",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleChurnUsage,
	Short:                 "Measures statement and syntax tree churn between two versions of a Python file",
	RunE:                  runChurnCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// Report is the output of the churn command.
type Report struct {
	Original string       `json:"original"`
	Final    string       `json:"final"`
	Churn    churn.Result `json:"churn"`
	Before   pyast.Stats  `json:"before"`
	After    pyast.Stats  `json:"after"`
	Diff     string       `json:"diff,omitempty"`
}

// runChurnCommand executes the churn command.
func runChurnCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-churn")

	if err := validateChurnArgs(&churnOptions, args); err != nil {
		logger.Error("invalid churn arguments", "error", err)
		return err
	}

	original, final, err := loadVersions(&churnOptions, args)
	if err != nil {
		logger.Error("failed to load file versions", "error", err)
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := buildReport(ctx, &churnOptions, args, original, final)
	if err != nil {
		logger.Error("failed to build churn report", "error", err)
		return err
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func validateChurnArgs(opts *RunOptionsChurn, args []string) error {
	if opts.Rev != "" {
		if len(args) != 1 {
			return fmt.Errorf("the 'rev' flag requires exactly one file")
		}
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("two files or the 'rev' flag with one file must be specified")
	}
	return nil
}

// loadVersions returns the original and final texts.
func loadVersions(opts *RunOptionsChurn, args []string) (string, string, error) {
	if opts.Rev != "" {
		original, err := git.ReadFileAtRevision(args[0], opts.Rev)
		if err != nil {
			return "", "", err
		}
		final, err := files.ReadText(args[0])
		return original, final, err
	}

	original, err := files.ReadText(args[0])
	if err != nil {
		return "", "", err
	}
	final, err := files.ReadText(args[1])
	return original, final, err
}

func buildReport(ctx context.Context, opts *RunOptionsChurn, args []string, original, final string) (Report, error) {
	report := Report{
		Original: args[0],
		Final:    args[len(args)-1],
		Churn:    churn.Analyze(ctx, original, final),
		Before:   pyast.Metrics(ctx, original),
		After:    pyast.Metrics(ctx, final),
	}
	if opts.Rev != "" {
		report.Original = fmt.Sprintf("%s@%s", args[0], opts.Rev)
	}
	if opts.Diff {
		diff, err := churn.UnifiedDiff(args[len(args)-1], original, final)
		if err != nil {
			return report, err
		}
		report.Diff = diff
	}
	return report, nil
}

func writeReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	ChurnCmd.Flags().StringVar(&churnOptions.Rev, "rev", "", "Git revision holding the original version of FILE.")
	ChurnCmd.Flags().BoolVar(&churnOptions.Diff, "diff", false, "Include a unified diff in the output.")
	ChurnCmd.Flags().BoolP("help", "h", false, "Show help for the churn command.")
}
