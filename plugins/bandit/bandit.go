package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/remedy/pkg/bandit"
	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// ScannerBandit represents the Bandit scanner with its configuration and logger.
type ScannerBandit struct {
	logger       hclog.Logger
	globalConfig *config.Config
}

// newScannerBandit creates a new instance of ScannerBandit.
func newScannerBandit(logger hclog.Logger) *ScannerBandit {
	return &ScannerBandit{
		logger: logger,
	}
}

// setGlobalConfig sets the global configuration for the ScannerBandit instance.
func (g *ScannerBandit) setGlobalConfig(globalConfig *config.Config) {
	g.globalConfig = globalConfig
}

func (g *ScannerBandit) binary() string {
	if g.globalConfig != nil && g.globalConfig.Scanner.Binary != "" {
		return g.globalConfig.Scanner.Binary
	}
	return "bandit"
}

// Scan executes the Bandit scan with the provided arguments and returns the decoded findings.
// Tool and report failures are classified in the response rather than returned as errors.
func (g *ScannerBandit) Scan(args shared.ScannerScanRequest) (shared.ScannerScanResponse, error) {
	var result shared.ScannerScanResponse
	g.logger.Info("scan is starting", "target", args.TargetPath)
	g.logger.Debug("debug info", "args", args)

	if err := g.validateScan(&args); err != nil {
		g.logger.Error("validation failed for scan operation", "error", err)
		return result, err
	}

	path, err := exec.LookPath(g.binary())
	if err != nil {
		return failure(shared.ScanFailureUnavailable, err), nil
	}

	commandArgs := bandit.CommandArgs(args.ReportFormat, args.ResultsPath, args.TargetPath, args.AdditionalArgs)
	cmd := exec.Command(path, commandArgs...)
	g.logger.Debug("debug info", "cmd", cmd.Args)

	var stdBuffer bytes.Buffer
	mw := io.MultiWriter(g.logger.StandardWriter(&hclog.StandardLoggerOptions{
		InferLevels: true,
	}), &stdBuffer)

	cmd.Stdout = mw
	cmd.Stderr = mw

	if err := cmd.Run(); err != nil {
		g.logger.Error("bandit execution error", "error", err)
		return failure(shared.ScanFailureUnavailable, fmt.Errorf("bandit execution error: %w. Output: %s", err, stdBuffer.String())), nil
	}

	data, err := os.ReadFile(args.ResultsPath)
	if err != nil {
		return failure(shared.ScanFailureInvalidOutput, fmt.Errorf("report was not written: %w", err)), nil
	}
	found, err := bandit.Parse(args.ReportFormat, data)
	if err != nil {
		return failure(shared.ScanFailureInvalidOutput, err), nil
	}

	result.ResultsPath = args.ResultsPath
	result.Findings = found
	g.logger.Info("scan finished", "target", args.TargetPath, "findings", len(found))
	return result, nil
}

func failure(kind string, err error) shared.ScannerScanResponse {
	if err == nil {
		err = errors.New(kind)
	}
	return shared.ScannerScanResponse{FailureKind: kind, Message: err.Error()}
}

// Setup initializes the global configuration for the ScannerBandit instance.
func (g *ScannerBandit) Setup(configData config.Config) (bool, error) {
	g.setGlobalConfig(&configData)
	return true, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	banditInstance := newScannerBandit(logger)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeScanner: &shared.ScannerPlugin{Impl: banditInstance},
		},
		Logger: logger,
	})
}
