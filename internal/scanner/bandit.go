package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/pkg/bandit"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
	"github.com/scan-io-git/remedy/pkg/shared/logger"
)

const defaultBanditBinary = "bandit"

// Bandit runs the bandit executable on a temporary copy of the source.
type Bandit struct {
	binary         string
	format         string
	additionalArgs []string
	timeout        time.Duration
	logger         hclog.Logger
}

// NewBandit creates a Bandit scanner. An empty binary means "bandit" on PATH.
func NewBandit(binary, format string, additionalArgs []string, timeout time.Duration, logger hclog.Logger) *Bandit {
	if binary == "" {
		binary = defaultBanditBinary
	}
	if format == "" {
		format = bandit.FormatJSON
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Bandit{
		binary:         binary,
		format:         format,
		additionalArgs: additionalArgs,
		timeout:        timeout,
		logger:         logger.Named("bandit"),
	}
}

// Scan analyzes source. The staged copy is removed on every return path.
func (b *Bandit) Scan(ctx context.Context, source string) ([]findings.Finding, error) {
	path, err := exec.LookPath(b.binary)
	if err != nil {
		return nil, serrors.NewScannerUnavailableError(b.binary, err)
	}

	dir, target, err := stageSource(source)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	resultsPath := filepath.Join(dir, "report."+reportExtension(b.format))
	commandArgs := bandit.CommandArgs(b.format, resultsPath, target, b.additionalArgs)

	cmd := exec.CommandContext(ctx, path, commandArgs...)
	b.logger.Debug("debug info", "cmd", cmd.Args)

	var stdBuffer bytes.Buffer
	mw := io.MultiWriter(logger.GetLoggerOutput(b.logger), &stdBuffer)
	cmd.Stdout = mw
	cmd.Stderr = mw

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("bandit interrupted: %w", ctxErr)
		}
		return nil, serrors.NewScannerUnavailableError(b.binary, fmt.Errorf("bandit execution error: %w. Output: %s", err, stdBuffer.String()))
	}

	data, err := os.ReadFile(resultsPath)
	if err != nil {
		return nil, serrors.NewScannerOutputInvalidError(b.binary, stdBuffer.String(), fmt.Errorf("report was not written: %w", err))
	}

	return b.decode(data)
}

func (b *Bandit) decode(data []byte) ([]findings.Finding, error) {
	fs, err := bandit.Parse(b.format, data)
	if err != nil {
		return nil, serrors.NewScannerOutputInvalidError(b.binary, string(data), err)
	}
	return fs, nil
}

// IsUnavailable reports whether err means the scanner could not be run.
func IsUnavailable(err error) bool {
	return errors.Is(err, serrors.ErrScannerUnavailable)
}

// IsOutputInvalid reports whether err means the scanner report was malformed.
func IsOutputInvalid(err error) bool {
	return errors.Is(err, serrors.ErrScannerOutputInvalid)
}
