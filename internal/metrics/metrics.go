// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics collects Prometheus counters for one run and can write
// them as a textfile for node_exporter's textfile collector.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/pdf-roundup/internal/fetch"
	"github.com/pdiddy/pdf-roundup/pkg/types"
)

const namespace = "pdf_roundup"

// Run holds the metrics of a single run on its own registry.
type Run struct {
	registry *prometheus.Registry

	lookups    *prometheus.CounterVec
	retrievals *prometheus.CounterVec
	bytes      prometheus.Counter
	archives   prometheus.Counter
	duration   *prometheus.HistogramVec
}

// New creates and registers the run metrics.
func New() *Run {
	r := &Run{registry: prometheus.NewRegistry()}

	r.lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Signed URL lookups by outcome.",
	}, []string{"status"})

	r.retrievals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrievals_total",
		Help:      "Document downloads by outcome.",
	}, []string{"status"})

	r.bytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloaded_bytes_total",
		Help:      "Bytes written by successful downloads.",
	})

	r.archives = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archives_total",
		Help:      "Zip archives produced.",
	})

	r.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "item_duration_seconds",
		Help:      "Time spent on lookup plus retrieval per identifier.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	r.registry.MustRegister(r.lookups, r.retrievals, r.bytes, r.archives, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

// Observe records one pipeline result.
func (r *Run) Observe(res types.DownloadResult, elapsed time.Duration) {
	var le *fetch.LookupError
	switch {
	case res.OK():
		r.lookups.WithLabelValues("success").Inc()
		r.retrievals.WithLabelValues("success").Inc()
		r.bytes.Add(float64(res.Size))
		r.duration.WithLabelValues("success").Observe(elapsed.Seconds())
		return
	case errors.As(res.Err, &le):
		r.lookups.WithLabelValues("error").Inc()
	default:
		r.lookups.WithLabelValues("success").Inc()
		r.retrievals.WithLabelValues("error").Inc()
	}
	r.duration.WithLabelValues("error").Observe(elapsed.Seconds())
}

// AddArchives counts produced archives.
func (r *Run) AddArchives(n int) {
	r.archives.Add(float64(n))
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
