package report

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	"github.com/scan-io-git/remedy/pkg/shared/logger"
)

// RunOptionsReport holds the arguments for the report command.
type RunOptionsReport struct {
	FromSQLite bool
	SarifPath  string
	JSON       bool
	NoColor    bool
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	reportOptions      RunOptionsReport
	exampleReportUsage = `  # Summarizing the default audit log
  remedy report

  # Summarizing a specific audit log as JSON
  remedy report --json /path/to/audit.jsonl

  # Summarizing the sqlite audit store and exporting unresolved findings as SARIF
  remedy report --from-sqlite --sarif /path/to/unresolved.sarif`
)

// ReportCmd represents the report command.
var ReportCmd = &cobra.Command{
	Use:                   "report [--from-sqlite] [--sarif PATH] [--json] [LOG.jsonl]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Args:                  cobra.MaximumNArgs(1),
	Example:               exampleReportUsage,
	Short:                 "Summarizes effectiveness, cost and patch quality from audit records",
	RunE:                  runReportCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runReportCommand executes the report command.
func runReportCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-report")

	records, source, err := loadRecords(cmd, args)
	if err != nil {
		logger.Error("failed to load audit records", "error", err)
		return err
	}
	logger.Debug("audit records loaded", "source", source, "total", len(records))

	if reportOptions.SarifPath != "" {
		sr, err := audit.ToSARIF(records)
		if err != nil {
			logger.Error("failed to build sarif report", "error", err)
			return err
		}
		if err := sr.WriteFile(reportOptions.SarifPath); err != nil {
			logger.Error("failed to write sarif report", "error", err)
			return err
		}
		logger.Info("sarif report written", "path", reportOptions.SarifPath)
	}

	summary := audit.Summarize(records)
	out := cmd.OutOrStdout()
	if reportOptions.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	if reportOptions.NoColor {
		disableColor()
	}
	render(out, summary)
	return nil
}

// loadRecords reads records from the sqlite store or a JSONL log.
func loadRecords(cmd *cobra.Command, args []string) ([]audit.Record, string, error) {
	if reportOptions.FromSQLite {
		if len(args) > 0 {
			return nil, "", fmt.Errorf("a log path cannot be combined with the 'from-sqlite' flag")
		}
		path := AppConfig.Audit.SQLitePath
		if path == "" {
			return nil, "", fmt.Errorf("audit.sqlite_path is not configured")
		}
		store, err := audit.NewSQLiteStore(path)
		if err != nil {
			return nil, "", err
		}
		defer store.Close()
		records, err := store.Records(cmd.Context())
		return records, path, err
	}

	path := config.GetAuditLogPath(AppConfig)
	if len(args) == 1 {
		path = args[0]
	}
	records, err := audit.ReadJSONL(path)
	return records, path, err
}

func init() {
	ReportCmd.Flags().BoolVar(&reportOptions.FromSQLite, "from-sqlite", false, "Read records from the configured sqlite audit store.")
	ReportCmd.Flags().StringVar(&reportOptions.SarifPath, "sarif", "", "Export findings that were not fixed as a SARIF report.")
	ReportCmd.Flags().BoolVar(&reportOptions.JSON, "json", false, "Print the summary as JSON.")
	ReportCmd.Flags().BoolVar(&reportOptions.NoColor, "no-color", false, "Disable coloured output.")
	ReportCmd.Flags().BoolP("help", "h", false, "Show help for the report command.")
}
