package remediate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/remedy/internal/pipeline"
	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/artifacts"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
	"github.com/scan-io-git/remedy/pkg/shared/logger"
)

// RunOptionsRemediate holds the arguments for the remediate command.
type RunOptionsRemediate struct {
	OutputPath    string
	Threads       int
	Diff          bool
	Since         string
	StrategiesDir string
	NoMetadata    bool
}

// Global variables for configuration and command arguments
var (
	AppConfig             *config.Config
	remediateOptions      RunOptionsRemediate
	exampleRemediateUsage = `  # Remediating a single file, fixed copy goes to the results folder
  remedy remediate /path/to/sample.py

  # Remediating every Python file of a folder with four concurrent threads and diffs
  remedy remediate -j 4 --diff --output /path/to/fixed /path/to/project

  # Remediating only Python files changed since a revision
  remedy remediate --since origin/main /path/to/repository

  # Remediating with precomputed strategies named after each file (sample_0.py -> sample_0.json)
  remedy remediate --strategies /path/to/strategies /path/to/py_dst`
)

// RemediateCmd represents the remediate command.
var RemediateCmd = &cobra.Command{
	Use:                   "remediate [--output/-o PATH] [-j THREADS_NUMBER, default=1] [--diff] [--since REV] [--strategies PATH] PATH...",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRemediateUsage,
	Short:                 "Scans Python files and patches their findings through the escalation tiers",
	RunE:                  runRemediateCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runRemediateCommand executes the remediate command.
func runRemediateCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-remediate")

	if err := validateRemediateArgs(&remediateOptions, args); err != nil {
		logger.Error("invalid remediate arguments", "error", err)
		return err
	}

	targets, err := collectTargets(args, remediateOptions.Since)
	if err != nil {
		logger.Error("failed to collect targets", "error", err)
		return err
	}
	if len(targets) == 0 {
		logger.Warn("no python files to remediate")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := newEngine(AppConfig, &remediateOptions, logger)
	if err != nil {
		logger.Error("failed to prepare remediation engine", "error", err)
		return err
	}
	defer eng.Close()

	results, runErr := eng.pipeline.Run(ctx, targets)
	launches := toLaunches(results)

	if _, err := artifacts.SaveArtifactJSON(AppConfig, logger, "remediate", eng.pipeline.RunID(), launches); err != nil {
		logger.Error("failed to write result", "error", err)
		return err
	}

	if err := eng.upload(ctx); err != nil {
		logger.Error("failed to upload audit log", "error", err)
		return err
	}

	printResults(cmd.OutOrStdout(), results)

	if runErr != nil {
		logger.Error("remediate command interrupted", "error", runErr)
		return runErr
	}

	if failed := countFailed(results); failed > 0 {
		err := fmt.Errorf("%d of %d files failed", failed, len(results))
		return serrors.NewCommandError(launches, err, 1)
	}

	if eng.gate != nil {
		rejected, err := eng.gate.Failures(records(results))
		if err != nil {
			return err
		}
		if len(rejected) > 0 {
			err := fmt.Errorf("gate %q rejected %d files: %v", eng.gate, len(rejected), rejected)
			return serrors.NewCommandError(launches, err, 2)
		}
	}

	logger.Info("remediate command completed successfully", "run_id", eng.pipeline.RunID())
	return nil
}

func init() {
	RemediateCmd.Flags().StringVarP(&remediateOptions.OutputPath, "output", "o", "", "Folder for remediated copies. Defaults to <results>/fixed.")
	RemediateCmd.Flags().IntVarP(&remediateOptions.Threads, "threads", "j", 1, "Number of files processed concurrently.")
	RemediateCmd.Flags().BoolVar(&remediateOptions.Diff, "diff", false, "Write a unified diff next to every remediated copy.")
	RemediateCmd.Flags().StringVar(&remediateOptions.Since, "since", "", "Only remediate Python files changed between this revision and HEAD.")
	RemediateCmd.Flags().StringVar(&remediateOptions.StrategiesDir, "strategies", "", "Folder of precomputed strategy files named after each input file.")
	RemediateCmd.Flags().BoolVar(&remediateOptions.NoMetadata, "no-metadata", false, "Do not record git repository metadata in audit records.")
	RemediateCmd.Flags().BoolP("help", "h", false, "Show help for the remediate command.")
}

// engineOptions maps command options onto the pipeline.
func engineOptions(cfg *config.Config, opts *RunOptionsRemediate, outputDir string) pipeline.Options {
	return pipeline.Options{
		Dataset:         cfg.Remedy.Dataset,
		Version:         cfg.Remedy.Version,
		Jobs:            opts.Threads,
		OutputDir:       outputDir,
		WriteDiff:       opts.Diff,
		StrategiesDir:   opts.StrategiesDir,
		CollectMetadata: !opts.NoMetadata,
	}
}
