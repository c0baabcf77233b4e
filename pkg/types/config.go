package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default
	// in place (no client-level timeout).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdf-roundup/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the lookup and retrieval calls.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the lookup API that answers a part number with a signed URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// ValidatePDF rejects downloads that do not parse as PDF documents.
	ValidatePDF bool `json:"validate_pdf" yaml:"validate_pdf"`

	// Workers bounds the number of concurrent fetches (default 1).
	Workers int `json:"workers" yaml:"workers"`
}

// PublishConfig holds settings for uploading produced artifacts.
type PublishConfig struct {
	// Target is "s3://bucket/prefix" or "gs://bucket/prefix". Empty disables publishing.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// S3Endpoint overrides the S3 endpoint for S3-compatible stores.
	S3Endpoint string `json:"s3_endpoint,omitempty" yaml:"s3_endpoint,omitempty"`

	// S3Region is the region used for S3 uploads.
	S3Region string `json:"s3_region,omitempty" yaml:"s3_region,omitempty"`

	// S3AccessKey and S3SecretKey select static credentials. When both are
	// empty the default AWS credential chain applies.
	S3AccessKey string `json:"-" yaml:"-"`
	S3SecretKey string `json:"-" yaml:"-"`
}

// CollisionPolicy selects what happens when a moved file already exists
// in the output directory.
type CollisionPolicy string

const (
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionFail      CollisionPolicy = "fail"
)

// RoundupConfig groups everything one run needs. The CLI builds it once and
// passes it by value into the orchestrator.
type RoundupConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Publish PublishConfig `json:"publish" yaml:"publish"`

	// InputPath is the spreadsheet holding one identifier per row.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputDir receives the run log, archives, and moved files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Policy selects how downloads are packaged.
	Policy OutputPolicy `json:"policy" yaml:"policy"`

	// OnCollision applies to the "none" policy only.
	OnCollision CollisionPolicy `json:"on_collision" yaml:"on_collision"`

	// LogName is the run log file name inside OutputDir (default run_log.txt).
	LogName string `json:"log_name" yaml:"log_name"`

	// Manifest writes manifest.yaml next to the archives.
	Manifest bool `json:"manifest" yaml:"manifest"`

	// HistoryDB is the SQLite run history path. Empty disables history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`

	// MetricsFile receives a Prometheus textfile at the end of the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}
