// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roundup runs one end-to-end job: read identifiers, fetch every
// document, package the downloads, and report.
package roundup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf-roundup/internal/fetch"
	"github.com/pdiddy/pdf-roundup/internal/history"
	"github.com/pdiddy/pdf-roundup/internal/httputil"
	"github.com/pdiddy/pdf-roundup/internal/loader"
	"github.com/pdiddy/pdf-roundup/internal/metrics"
	"github.com/pdiddy/pdf-roundup/internal/packager"
	"github.com/pdiddy/pdf-roundup/internal/publish"
	"github.com/pdiddy/pdf-roundup/internal/retrieve"
	"github.com/pdiddy/pdf-roundup/internal/runlog"
	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// Deps holds the collaborators of a run. Nil fields get production
// defaults built from the run configuration.
type Deps struct {
	Fetcher   retrieve.Fetcher
	Observer  retrieve.Observer
	Publisher publish.Publisher
	Logger    *slog.Logger
}

type nopObserver struct{}

func (nopObserver) Status(string) {}
func (nopObserver) Logged(string) {}

// Run executes one job. Per-identifier failures never fail the run; they
// are counted in the summary and written to the run log. The returned error
// reports configuration, input, packaging, or publishing problems. When
// packaging or publishing fails the summary still describes what was
// produced.
func Run(ctx context.Context, cfg types.RoundupConfig, apiKey string, deps Deps) (types.RunSummary, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	summary := types.RunSummary{
		RunID:     uuid.NewString(),
		InputPath: cfg.InputPath,
		OutputDir: cfg.OutputDir,
		Policy:    cfg.Policy.String(),
		Started:   time.Now(),
	}

	if err := cfg.Policy.Validate(); err != nil {
		return summary, err
	}
	if cfg.OnCollision != "" && cfg.OnCollision != types.CollisionOverwrite && cfg.OnCollision != types.CollisionFail {
		return summary, &types.ConfigError{Field: "on-collision", Value: string(cfg.OnCollision), Reason: "must be overwrite or fail"}
	}
	var target publish.Target
	if cfg.Publish.Target != "" {
		t, err := publish.ParseTarget(cfg.Publish.Target)
		if err != nil {
			return summary, err
		}
		target = t
	}

	ids, err := loader.Load(cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("loading identifiers: %w", err)
	}
	logger.Info("loaded identifiers", "input", cfg.InputPath, "count", len(ids), "policy", summary.Policy)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}
	runLog, err := runlog.Open(cfg.OutputDir, cfg.LogName)
	if err != nil {
		return summary, err
	}
	defer runLog.Close()

	workDir, err := os.MkdirTemp(cfg.OutputDir, ".pdf-roundup-*")
	if err != nil {
		return summary, fmt.Errorf("creating work directory: %w", err)
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(httputil.NewClient(cfg.Fetch.HTTPConfig), cfg.Fetch, apiKey)
	}
	m := metrics.New()

	res := retrieve.Run(ctx, fetcher, ids, retrieve.Options{
		WorkDir:  workDir,
		Workers:  cfg.Fetch.Workers,
		Log:      runLog,
		Observer: obs,
		Recorder: m,
		Logger:   logger,
	})
	summary.Total = res.Total()
	summary.Downloaded = res.Downloaded
	summary.Failed = res.Failed
	if res.LogErr != nil {
		logger.Warn("run log incomplete", "path", runLog.Path(), "error", res.LogErr)
	}

	pkg := &packager.Packager{
		OutputDir:     cfg.OutputDir,
		WorkDir:       workDir,
		OnCollision:   cfg.OnCollision,
		WriteManifest: cfg.Manifest,
		Logger:        logger,
	}
	manifest, runErr := pkg.Package(res.Paths(), cfg.Policy)
	summary.Archives = manifest.ArchivePaths()
	summary.Moved = manifest.Moved
	m.AddArchives(len(manifest.Archives))
	if runErr != nil {
		logger.Error("packaging failed", "error", runErr)
	}

	if runErr == nil && cfg.Publish.Target != "" {
		published, err := publishOutputs(ctx, cfg, target, deps.Publisher, manifest.Outputs())
		summary.Published = published
		if err != nil {
			logger.Error("publishing failed", "target", target.String(), "error", err)
			runErr = err
		} else {
			logger.Info("published outputs", "target", target.String(), "count", len(published))
		}
	}

	summary.Finished = time.Now()

	if cfg.HistoryDB != "" {
		if err := recordHistory(ctx, cfg.HistoryDB, summary, res.Results); err != nil {
			logger.Warn("recording run history", "path", cfg.HistoryDB, "error", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}

	obs.Status(summary.Status())
	logger.Info("run finished",
		"run_id", summary.RunID,
		"total", summary.Total,
		"downloaded", summary.Downloaded,
		"failed", summary.Failed,
		"archives", len(summary.Archives),
		"elapsed", summary.Finished.Sub(summary.Started).Round(time.Millisecond),
	)
	return summary, runErr
}

func publishOutputs(ctx context.Context, cfg types.RoundupConfig, target publish.Target, p publish.Publisher, paths []string) ([]string, error) {
	if p == nil {
		pub, closeFn, err := publish.New(ctx, target, cfg.Publish)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		p = pub
	}
	return publish.PublishAll(ctx, p, target, paths)
}

func recordHistory(ctx context.Context, path string, summary types.RunSummary, results []types.DownloadResult) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	// An interrupted run is still recorded.
	recordCtx := ctx
	if ctx.Err() != nil {
		recordCtx = context.WithoutCancel(ctx)
	}
	return errors.Join(store.Record(recordCtx, summary, results), store.Close())
}
