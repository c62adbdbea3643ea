// Package pipeline drives one remediation run over a set of files:
// scan, strategies, escalation, churn and audit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/internal/churn"
	"github.com/scan-io-git/remedy/internal/document"
	"github.com/scan-io-git/remedy/internal/escalation"
	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/git"
	"github.com/scan-io-git/remedy/internal/scanner"
	"github.com/scan-io-git/remedy/internal/strategist"
	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/files"
)

const (
	StatusOK     = shared.StatusOK
	StatusFailed = shared.StatusFailed
)

// Options tunes a Pipeline.
type Options struct {
	RunID   string
	Dataset string
	Version string
	// Jobs bounds the number of files processed at once. Zero means GOMAXPROCS.
	Jobs int
	// OutputDir receives the remediated copy of every file. Empty disables writing.
	OutputDir string
	// SourceRoot anchors output paths: a file is written to OutputDir under
	// its path relative to SourceRoot. Empty means the deepest folder shared
	// by the files of a Run.
	SourceRoot string
	// WriteDiff stores a unified diff next to each remediated copy.
	WriteDiff bool
	// StrategiesDir holds precomputed "<name>.json" strategy files. Files
	// without one fall back to the generator.
	StrategiesDir string
	// CollectMetadata records the git repository of each file in the audit record.
	CollectMetadata bool
}

// Pipeline processes files end to end. It is safe for concurrent use when
// its collaborators are.
type Pipeline struct {
	scanner    scanner.Scanner
	generator  strategist.Generator
	controller *escalation.Controller
	sink       audit.Sink
	opts       Options
	logger     hclog.Logger
}

// New creates a Pipeline. sink may be nil to skip persistence.
func New(s scanner.Scanner, gen strategist.Generator, ctrl *escalation.Controller, sink audit.Sink, opts Options, logger hclog.Logger) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if gen == nil {
		gen = strategist.Message{}
	}
	if opts.RunID == "" {
		opts.RunID = audit.NewRunID()
	}
	return &Pipeline{
		scanner:    s,
		generator:  gen,
		controller: ctrl,
		sink:       sink,
		opts:       opts,
		logger:     logger.Named("pipeline"),
	}
}

// RunID returns the identifier shared by every record of this pipeline.
func (p *Pipeline) RunID() string { return p.opts.RunID }

// FileResult is the outcome of one file.
type FileResult struct {
	Path      string
	Status    string
	Message   string
	Record    audit.Record
	Final     string
	Diff      string
	FixedPath string
	DiffPath  string
}

// Run processes paths with bounded parallelism. Per-file failures are
// reported in the results; the returned error is only set when ctx ends the
// run early or the scanner cannot be started at all. Results follow the
// order of paths.
func (p *Pipeline) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	jobs := p.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	p.logger.Info("remediation starting", "run_id", p.opts.RunID, "total", len(paths), "goroutines", jobs)

	results := make([]FileResult, len(paths))
	outputs, collisions := p.outputNames(paths)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		if err := collisions[i]; err != nil {
			p.logger.Error("file skipped", "path", path, "error", err)
			results[i] = FileResult{Path: path, Status: StatusFailed, Message: err.Error()}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Status: StatusFailed, Message: err.Error()}
				return err
			}

			res, err := p.processFile(gctx, path, outputs[i])
			if err != nil {
				p.logger.Error("file failed", "path", path, "error", err)
				res.Path, res.Status, res.Message = path, StatusFailed, err.Error()
				if scanner.IsUnavailable(err) {
					results[i] = res
					return err
				}
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info("remediation finished", "run_id", p.opts.RunID, "files", len(paths))
	return results, err
}

// ProcessFile reads, remediates and records one file. Its copy is written
// under OutputDir relative to SourceRoot, or by base name without one.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	root := p.opts.SourceRoot
	if root == "" {
		root = filepath.Dir(absolute(path))
	}
	return p.processFile(ctx, path, outputName(root, path))
}

func (p *Pipeline) processFile(ctx context.Context, path, output string) (FileResult, error) {
	source, err := files.ReadText(path)
	if err != nil {
		return FileResult{Path: path}, err
	}

	strategies, err := p.precomputed(path)
	if err != nil {
		return FileResult{Path: path}, err
	}

	var repo *git.RepositoryMetadata
	if p.opts.CollectMetadata {
		md, err := git.CollectRepositoryMetadata(filepath.Dir(path))
		if err != nil {
			p.logger.Debug("repository metadata unavailable", "path", path, "error", err)
		} else {
			repo = md
		}
	}

	res, err := p.process(ctx, path, source, strategies, repo)
	if err != nil {
		return res, err
	}
	if err := p.store(output, &res); err != nil {
		return res, err
	}
	return res, nil
}

// ProcessSource remediates source held in memory. fileID names it in the
// audit record. strategies may be nil to use the generator.
func (p *Pipeline) ProcessSource(ctx context.Context, fileID, source string, strategies []findings.Strategy) (FileResult, error) {
	return p.process(ctx, fileID, source, strategies, nil)
}

func (p *Pipeline) process(ctx context.Context, fileID, source string, strategies []findings.Strategy, repo *git.RepositoryMetadata) (FileResult, error) {
	started := time.Now()
	res := FileResult{Path: fileID}
	logger := p.logger.With("file", fileID)

	initial, err := p.scanner.Scan(ctx, source)
	if err != nil {
		return res, fmt.Errorf("initial scan: %w", err)
	}
	logger.Info("initial scan finished", "findings", len(initial))

	doc := document.New(source)
	var result escalation.Result
	if len(initial) > 0 {
		if strategies == nil {
			strategies, err = p.generator.Generate(ctx, doc.Snapshot(), initial)
			if err != nil {
				return res, fmt.Errorf("strategies: %w", err)
			}
		}
		result = p.controller.Run(ctx, doc, strategist.Bind(initial, strategies))
	}

	final := doc.Text()
	remaining := initial
	if final != source {
		remaining, err = p.scanner.Scan(ctx, final)
		if err != nil {
			return res, fmt.Errorf("final scan: %w", err)
		}
	}

	rec := audit.Build(ctx, audit.Input{
		RunID:      p.opts.RunID,
		FileID:     fileID,
		Dataset:    p.opts.Dataset,
		Version:    p.opts.Version,
		Started:    started,
		Duration:   time.Since(started),
		Original:   source,
		Final:      final,
		Initial:    initial,
		Remaining:  remaining,
		Result:     result,
		Churn:      churn.Analyze(ctx, source, final),
		Repository: repo,
	})

	if p.sink != nil {
		if err := p.sink.Write(ctx, rec); err != nil {
			return res, fmt.Errorf("audit: %w", err)
		}
	}

	res.Status = StatusOK
	res.Record = rec
	res.Final = final
	if p.opts.WriteDiff {
		res.Diff, err = churn.UnifiedDiff(filepath.Base(fileID), source, final)
		if err != nil {
			return res, fmt.Errorf("diff: %w", err)
		}
	}

	logger.Info("file finished",
		"findings", len(initial),
		"fixed", rec.SecuritySummary.FixedCount,
		"remaining", len(remaining),
		"cost_usd", rec.TotalCostUSD)
	return res, nil
}

func (p *Pipeline) precomputed(path string) ([]findings.Strategy, error) {
	if p.opts.StrategiesDir == "" {
		return nil, nil
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".json"
	strategies, err := strategist.LoadFile(filepath.Join(p.opts.StrategiesDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return strategies, err
}

func (p *Pipeline) store(output string, res *FileResult) error {
	if p.opts.OutputDir == "" {
		return nil
	}
	res.FixedPath = filepath.Join(p.opts.OutputDir, output)
	if err := files.WriteFile(res.FixedPath, []byte(res.Final)); err != nil {
		return err
	}
	if p.opts.WriteDiff && res.Diff != "" {
		res.DiffPath = res.FixedPath + ".diff"
		if err := files.WriteFile(res.DiffPath, []byte(res.Diff)); err != nil {
			return err
		}
	}
	return nil
}

// outputNames maps every path to its location under OutputDir. A path whose
// location is already taken by an earlier one gets an error instead.
func (p *Pipeline) outputNames(paths []string) ([]string, []error) {
	root := p.opts.SourceRoot
	if root == "" {
		root = commonDir(paths)
	}
	names := make([]string, len(paths))
	errs := make([]error, len(paths))
	owner := make(map[string]string, len(paths))
	for i, path := range paths {
		names[i] = outputName(root, path)
		if p.opts.OutputDir == "" {
			continue
		}
		if prev, ok := owner[names[i]]; ok {
			errs[i] = fmt.Errorf("output %q is already written for %s", names[i], prev)
			continue
		}
		owner[names[i]] = path
	}
	return names, errs
}

// outputName is path relative to root, or its base name when path is
// outside root.
func outputName(root, path string) string {
	if rel, ok := within(absolute(root), absolute(path)); ok {
		return rel
	}
	return filepath.Base(path)
}

// commonDir returns the deepest folder containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	root := filepath.Dir(absolute(paths[0]))
	for _, path := range paths[1:] {
		dir := filepath.Dir(absolute(path))
		for {
			if _, ok := within(root, dir); ok {
				break
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
