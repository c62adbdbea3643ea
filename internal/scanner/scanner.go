// Package scanner runs the static analyzer over in-memory source text.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

// Scanner statically analyzes source text. Failures to run the tool or to
// decode its report are returned as ScannerUnavailable and
// ScannerOutputInvalid errors, never as an empty result.
type Scanner interface {
	Scan(ctx context.Context, source string) ([]findings.Finding, error)
}

// New builds the scanner selected by the configuration.
func New(cfg *config.Config, logger hclog.Logger) (Scanner, error) {
	sc := cfg.Scanner
	switch sc.Kind {
	case "", config.ScannerKindBandit:
		return NewBandit(sc.Binary, sc.Format, sc.AdditionalArgs, sc.Timeout, logger), nil
	case config.ScannerKindPlugin:
		return NewPlugin(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown scanner kind %q", sc.Kind)
	}
}

// Close releases resources held by s, if any.
func Close(s Scanner) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// stageSource writes source into a fresh temporary folder and returns the
// folder and the path of the staged file. The caller must remove the folder.
func stageSource(source string) (string, string, error) {
	dir, err := os.MkdirTemp("", "remedy-scan-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temporary folder: %w", err)
	}
	target := filepath.Join(dir, "source.py")
	if err := os.WriteFile(target, []byte(source), 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to stage source: %w", err)
	}
	return dir, target, nil
}

func reportExtension(format string) string {
	if format == "" {
		return "json"
	}
	return format
}
