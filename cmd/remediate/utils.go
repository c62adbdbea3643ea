package remediate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/audit"
	"github.com/scan-io-git/remedy/internal/escalation"
	"github.com/scan-io-git/remedy/internal/gate"
	"github.com/scan-io-git/remedy/internal/git"
	"github.com/scan-io-git/remedy/internal/llm"
	"github.com/scan-io-git/remedy/internal/oracle"
	"github.com/scan-io-git/remedy/internal/pipeline"
	"github.com/scan-io-git/remedy/internal/proposer"
	"github.com/scan-io-git/remedy/internal/scanner"
	"github.com/scan-io-git/remedy/internal/span"
	"github.com/scan-io-git/remedy/internal/strategist"
	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	"github.com/scan-io-git/remedy/pkg/shared/httpclient"
)

const pythonExt = ".py"

// engine bundles the collaborators of one remediate run.
type engine struct {
	pipeline *pipeline.Pipeline
	scanner  scanner.Scanner
	sink     audit.Multi
	jsonl    *audit.JSONL
	s3       *audit.S3Uploader
	gate     *gate.Gate
	logger   hclog.Logger
}

// newEngine wires scanner, tiers, strategist, sinks and the gate from cfg.
func newEngine(cfg *config.Config, opts *RunOptionsRemediate, logger hclog.Logger) (*engine, error) {
	s, err := scanner.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	eng := &engine{scanner: s, logger: logger}

	http := httpclient.InitializeRestyClient(logger.Named("http"), cfg)
	tiers, err := proposer.TiersFromConfig(cfg, http, logger)
	if err != nil {
		eng.Close()
		return nil, err
	}

	resolver := span.NewResolver(config.GetWindowRadius(cfg), logger)
	ctrl := escalation.New(tiers, resolver, oracle.New(s, logger), cfg.Pricing,
		escalation.Options{LineTracking: cfg.Remedy.LineTracking}, logger)

	var gen strategist.Generator = strategist.Message{}
	if cfg.Strategist.Kind == config.StrategistKindChat {
		client := llm.New(http, cfg.Strategist.Endpoint, llm.APIKeyFromEnv(cfg.Strategist.APIKeyEnv), logger.Named("llm"))
		gen = strategist.NewChat(client, cfg.Strategist.Model, resolver, logger)
	}

	eng.jsonl = audit.NewJSONL(config.GetAuditLogPath(cfg))
	eng.sink = audit.Multi{eng.jsonl}
	if cfg.Audit.SQLitePath != "" {
		store, err := audit.NewSQLiteStore(cfg.Audit.SQLitePath)
		if err != nil {
			eng.Close()
			return nil, err
		}
		eng.sink = append(eng.sink, store)
	}

	if cfg.Audit.S3.Bucket != "" {
		eng.s3, err = audit.NewS3Uploader(cfg.Audit.S3.Bucket, cfg.Audit.S3.Region, cfg.Audit.S3.Prefix)
		if err != nil {
			eng.Close()
			return nil, err
		}
	}

	if cfg.Audit.Gate != "" {
		eng.gate, err = gate.New(cfg.Audit.Gate)
		if err != nil {
			eng.Close()
			return nil, err
		}
	}

	outputDir := opts.OutputPath
	if outputDir == "" {
		outputDir = filepath.Join(config.GetRemedyResultsHome(cfg), "fixed")
	}
	eng.pipeline = pipeline.New(s, gen, ctrl, eng.sink, engineOptions(cfg, opts, outputDir), logger)
	return eng, nil
}

// upload pushes the audit log to S3 when a bucket is configured.
func (e *engine) upload(ctx context.Context) error {
	if e.s3 == nil {
		return nil
	}
	location, err := e.s3.Upload(ctx, e.pipeline.RunID(), e.jsonl.Path())
	if err != nil {
		return err
	}
	e.logger.Info("audit log uploaded", "location", location)
	return nil
}

// Close releases the scanner and the sinks.
func (e *engine) Close() error {
	return errors.Join(scanner.Close(e.scanner), e.sink.Close())
}

// collectTargets expands folders into the Python files they contain. With a
// revision, only files changed between it and HEAD are returned.
func collectTargets(args []string, since string) ([]string, error) {
	if since != "" {
		root, err := git.RepositoryRoot(args[0])
		if err != nil {
			return nil, err
		}
		changed, err := git.ChangedFiles(root, since, "HEAD", pythonExt)
		if err != nil {
			return nil, err
		}
		targets := make([]string, 0, len(changed))
		for _, rel := range changed {
			targets = append(targets, filepath.Join(root, filepath.FromSlash(rel)))
		}
		return targets, nil
	}

	seen := make(map[string]struct{})
	var targets []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		targets = append(targets, path)
	}

	for _, arg := range args {
		var found []string
		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if path == arg || filepath.Ext(path) == pythonExt {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", arg, err)
		}
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}
	return targets, nil
}

// launchResult is the per-file payload of the command result file.
type launchResult struct {
	FixedPath  string  `json:"fixed_path,omitempty"`
	DiffPath   string  `json:"diff_path,omitempty"`
	VulnCount  int     `json:"vuln_count"`
	FixedCount int     `json:"fixed_count"`
	CostUSD    float64 `json:"total_cost_usd"`
}

func toLaunches(results []pipeline.FileResult) shared.GenericLaunchesResult {
	var out shared.GenericLaunchesResult
	for _, res := range results {
		launch := shared.GenericResult{Args: res.Path, Status: res.Status, Message: res.Message}
		if res.Status == pipeline.StatusOK {
			launch.Result = launchResult{
				FixedPath:  res.FixedPath,
				DiffPath:   res.DiffPath,
				VulnCount:  res.Record.InputStats.VulnCount,
				FixedCount: res.Record.SecuritySummary.FixedCount,
				CostUSD:    res.Record.TotalCostUSD,
			}
		}
		out.Launches = append(out.Launches, launch)
	}
	return out
}

func countFailed(results []pipeline.FileResult) int {
	n := 0
	for _, res := range results {
		if res.Status != pipeline.StatusOK {
			n++
		}
	}
	return n
}

func records(results []pipeline.FileResult) []audit.Record {
	out := make([]audit.Record, 0, len(results))
	for _, res := range results {
		if res.Status == pipeline.StatusOK {
			out = append(out, res.Record)
		}
	}
	return out
}

func printResults(w io.Writer, results []pipeline.FileResult) {
	for _, res := range results {
		if res.Status != pipeline.StatusOK {
			fmt.Fprintf(w, "%-7s %s: %s\n", res.Status, res.Path, res.Message)
			continue
		}
		rec := res.Record
		fmt.Fprintf(w, "%-7s %s: fixed %d/%d, new issues %d, cost $%.4f\n",
			res.Status, res.Path,
			rec.SecuritySummary.FixedCount, rec.InputStats.VulnCount,
			rec.SecuritySummary.NewIssuesIntroduced, rec.TotalCostUSD)
	}
}
