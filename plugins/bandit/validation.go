package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/scan-io-git/remedy/pkg/bandit"
	"github.com/scan-io-git/remedy/pkg/shared"
)

// validateScan checks the necessary fields in ScannerScanRequest and returns errors if they are not set.
func (g *ScannerBandit) validateScan(args *shared.ScannerScanRequest) error {
	if args.TargetPath == "" {
		return fmt.Errorf("target path is required")
	}
	if args.ResultsPath == "" {
		return fmt.Errorf("results path is required")
	}
	if _, err := os.Stat(args.TargetPath); os.IsNotExist(err) {
		return fmt.Errorf("target path does not exist: %s", args.TargetPath)
	}
	if args.ReportFormat == "" {
		args.ReportFormat = bandit.FormatJSON
	}
	return g.validateFormat(args.ReportFormat)
}

// validateFormat verifies the format is one the plugin can decode.
func (g *ScannerBandit) validateFormat(format string) error {
	formatList := []string{bandit.FormatJSON, bandit.FormatSARIF}
	if !shared.IsInList(format, formatList) {
		return fmt.Errorf("unsupported report format %q, supported formats: %s", format, strings.Join(formatList, ", "))
	}
	return nil
}
