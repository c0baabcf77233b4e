// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve drives the fetcher over a list of identifiers. Every
// identifier is attempted once; a failure is recorded and the run moves on.
// Results are logged and reported strictly in input order.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// Fetcher downloads the document for one identifier to destPath.
type Fetcher interface {
	Fetch(ctx context.Context, identifier, destPath string) types.DownloadResult
}

// LineWriter receives one log line per identifier.
type LineWriter interface {
	Append(line string) error
}

// Observer is told about progress for display. All calls come from the
// goroutine that called Run.
type Observer interface {
	Status(text string)
	Logged(line string)
}

// Recorder receives each result with the time its fetch took.
type Recorder interface {
	Observe(res types.DownloadResult, elapsed time.Duration)
}

// Options configures a pipeline run.
type Options struct {
	// WorkDir holds the raw downloads. It must exist.
	WorkDir string

	// Workers bounds concurrent fetches. Values below 1 mean 1, which
	// processes identifiers strictly one at a time.
	Workers int

	Log      LineWriter
	Observer Observer
	Recorder Recorder
	Logger   *slog.Logger
}

// Result holds the outcome of a pipeline run.
type Result struct {
	Results    []types.DownloadResult
	Downloaded int
	Failed     int

	// LogErr is the first error returned by the run log, if any.
	LogErr error
}

// Total returns the number of identifiers processed.
func (r Result) Total() int {
	return r.Downloaded + r.Failed
}

// HasFailures reports whether any identifier failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Paths returns the downloaded file paths in input order.
func (r Result) Paths() []string {
	paths := make([]string, 0, r.Downloaded)
	for _, res := range r.Results {
		if res.OK() {
			paths = append(paths, res.Path)
		}
	}
	return paths
}

type outcome struct {
	res     types.DownloadResult
	elapsed time.Duration
}

// Run fetches every identifier and returns the results in input order.
func Run(ctx context.Context, f Fetcher, identifiers []string, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	total := len(identifiers)
	names := WorkNames(identifiers)
	outcomes := make([]outcome, total)
	done := make([]chan struct{}, total)
	for i := range done {
		done[i] = make(chan struct{})
	}

	fetchOne := func(i int) {
		start := time.Now()
		res := f.Fetch(ctx, identifiers[i], filepath.Join(opts.WorkDir, names[i]))
		outcomes[i] = outcome{res: res, elapsed: time.Since(start)}
		close(done[i])
	}

	result := Result{Results: make([]types.DownloadResult, 0, total)}
	flush := func(i int) {
		o := outcomes[i]
		line := o.res.Line()
		if o.res.OK() {
			result.Downloaded++
			logger.Debug("downloaded", "identifier", o.res.Identifier, "bytes", o.res.Size, "elapsed", o.elapsed)
		} else {
			result.Failed++
			logger.Debug("failed", "identifier", o.res.Identifier, "error", o.res.Err)
		}
		result.Results = append(result.Results, o.res)

		if opts.Log != nil {
			if err := opts.Log.Append(line); err != nil && result.LogErr == nil {
				result.LogErr = err
				logger.Warn("run log write failed", "error", err)
			}
		}
		if opts.Observer != nil {
			opts.Observer.Logged(line)
		}
		if opts.Recorder != nil {
			opts.Recorder.Observe(o.res, o.elapsed)
		}
	}

	status := func(text string) {
		if opts.Observer != nil {
			opts.Observer.Status(text)
		}
	}

	if workers == 1 {
		for i := range identifiers {
			status(fmt.Sprintf("Downloading %d/%d…", i+1, total))
			fetchOne(i)
			flush(i)
		}
		return result
	}

	// Fetches run in the errgroup; this goroutine flushes completions in
	// input order as soon as each prefix is complete.
	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i := range identifiers {
			g.Go(func() error {
				fetchOne(i)
				return nil
			})
		}
		g.Wait()
	}()

	for i := range identifiers {
		<-done[i]
		flush(i)
		status(fmt.Sprintf("Downloaded %d/%d", i+1, total))
	}
	return result
}
