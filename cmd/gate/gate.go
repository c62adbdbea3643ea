package gate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/internal/gate"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
	"github.com/scan-io-git/remedy/pkg/shared/logger"
)

// RunOptionsGate holds the arguments for the gate command.
type RunOptionsGate struct {
	Expr string
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	gateOptions      RunOptionsGate
	exampleGateUsage = `  # Failing when any remediated file gained new findings
  remedy gate --expr 'record.security_summary.new_issues_introduced <= 0' /path/to/audit.jsonl

  # Requiring every finding of every file to be fixed, using the default audit log
  remedy gate --expr 'record.security_summary.fixed_count == record.input_stats.vuln_count'`
)

// GateCmd represents the gate command.
var GateCmd = &cobra.Command{
	Use:                   "gate [--expr/-e CEL_EXPRESSION] [LOG.jsonl]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Args:                  cobra.MaximumNArgs(1),
	Example:               exampleGateUsage,
	Short:                 "Checks every audit record against a CEL expression",
	Long: `Checks every audit record against a CEL expression. The record is exposed as the
'record' variable with the same field names as the JSONL audit log. The command exits
with code 2 when at least one record does not pass.`,
	RunE: runGateCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runGateCommand executes the gate command.
func runGateCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-gate")

	expr := gateOptions.Expr
	if expr == "" {
		expr = AppConfig.Audit.Gate
	}
	if expr == "" {
		return fmt.Errorf("either the 'expr' flag or audit.gate must be specified")
	}

	g, err := gate.New(expr)
	if err != nil {
		logger.Error("invalid gate expression", "error", err)
		return err
	}

	path := config.GetAuditLogPath(AppConfig)
	if len(args) == 1 {
		path = args[0]
	}
	records, err := audit.ReadJSONL(path)
	if err != nil {
		logger.Error("failed to read audit log", "path", path, "error", err)
		return err
	}

	failed, err := g.Failures(records)
	if err != nil {
		logger.Error("gate evaluation failed", "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	for _, fileID := range failed {
		fmt.Fprintf(out, "FAILED  %s\n", fileID)
	}
	if len(failed) > 0 {
		err := fmt.Errorf("%d of %d records failed the gate %q", len(failed), len(records), expr)
		return serrors.NewCommandError(failed, err, 2)
	}

	fmt.Fprintf(out, "all %d records passed\n", len(records))
	logger.Info("gate passed", "records", len(records))
	return nil
}

func init() {
	GateCmd.Flags().StringVarP(&gateOptions.Expr, "expr", "e", "", "CEL expression every record must satisfy. Defaults to audit.gate.")
	GateCmd.Flags().BoolP("help", "h", false, "Show help for the gate command.")
}
