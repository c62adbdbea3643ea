package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	serrors "github.com/scan-io-git/remedy/pkg/shared/errors"
)

// Plugin delegates scans to an external scanner plugin binary. The plugin
// process is started on first use and kept until Close.
type Plugin struct {
	cfg    *config.Config
	name   string
	logger hclog.Logger

	mu     sync.Mutex
	handle *shared.PluginHandle
	impl   shared.Scanner
}

// NewPlugin creates a scanner backed by the plugin named in the configuration.
func NewPlugin(cfg *config.Config, logger hclog.Logger) *Plugin {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Plugin{
		cfg:    cfg,
		name:   cfg.Scanner.Plugin,
		logger: logger.Named("plugin-scanner"),
	}
}

func (p *Plugin) scanner() (shared.Scanner, error) {
	if p.impl != nil {
		return p.impl, nil
	}

	handle, err := shared.StartPlugin(p.cfg, p.logger, shared.PluginTypeScanner, p.name)
	if err != nil {
		return nil, serrors.NewScannerUnavailableError(p.name, err)
	}
	impl, ok := handle.Raw.(shared.Scanner)
	if !ok {
		handle.Kill()
		return nil, serrors.NewScannerUnavailableError(p.name, errors.New("invalid plugin type"))
	}
	if _, err := impl.Setup(*p.cfg); err != nil {
		handle.Kill()
		return nil, serrors.NewScannerUnavailableError(p.name, fmt.Errorf("plugin setup failed: %w", err))
	}

	p.handle, p.impl = handle, impl
	return impl, nil
}

// Scan stages source and asks the plugin to analyze it.
func (p *Plugin) Scan(ctx context.Context, source string) ([]findings.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	impl, err := p.scanner()
	if err != nil {
		return nil, err
	}

	dir, target, err := stageSource(source)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	format := p.cfg.Scanner.Format
	req := shared.ScannerScanRequest{
		TargetPath:     target,
		ResultsPath:    filepath.Join(dir, "report."+reportExtension(format)),
		ReportFormat:   format,
		AdditionalArgs: p.cfg.Scanner.AdditionalArgs,
	}

	resp, err := impl.Scan(req)
	if err != nil {
		return nil, serrors.NewScannerUnavailableError(p.name, fmt.Errorf("scanner plugin scan failed: %w", err))
	}
	return fromResponse(p.name, resp)
}

// Close stops the plugin process.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handle.Kill()
	p.handle, p.impl = nil, nil
	return nil
}

func fromResponse(name string, resp shared.ScannerScanResponse) ([]findings.Finding, error) {
	switch resp.FailureKind {
	case shared.ScanFailureNone:
		if resp.Findings == nil {
			return []findings.Finding{}, nil
		}
		return resp.Findings, nil
	case shared.ScanFailureUnavailable:
		return nil, serrors.NewScannerUnavailableError(name, errors.New(resp.Message))
	case shared.ScanFailureInvalidOutput:
		return nil, serrors.NewScannerOutputInvalidError(name, "", errors.New(resp.Message))
	default:
		return nil, serrors.NewScannerOutputInvalidError(name, "", fmt.Errorf("unknown failure kind %q: %s", resp.FailureKind, resp.Message))
	}
}
