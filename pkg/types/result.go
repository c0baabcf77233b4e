// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf-roundup pipeline:
// run configuration, output policies, per-identifier results, and run
// summaries.
package types

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DownloadResult is the outcome of fetching one identifier. Exactly one of
// Path and Err is set.
type DownloadResult struct {
	// Identifier is the part number as read from the input.
	Identifier string `json:"identifier" yaml:"identifier"`

	// URL is the signed URL returned by the lookup, when one was resolved.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Path is the local file holding the downloaded document.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Size is the number of bytes written to Path.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`

	// Err is the lookup or retrieval failure.
	Err error `json:"-" yaml:"-"`
}

// OK reports whether the document was downloaded.
func (r DownloadResult) OK() bool {
	return r.Err == nil && r.Path != ""
}

// Line renders the run log line for the result. The line never contains a
// line break: newlines and other control characters in the identifier or
// error detail are replaced with spaces.
func (r DownloadResult) Line() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: ERROR %s", SingleLine(r.Identifier), SingleLine(r.Err.Error()))
	}
	return fmt.Sprintf("%s: SUCCESS %s", SingleLine(r.Identifier), SingleLine(r.URL))
}

// SingleLine replaces each interior run of control characters in s with one
// space and drops leading and trailing ones.
func SingleLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, c := range s {
		if unicode.IsControl(c) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(c)
	}
	return b.String()
}

// RunSummary holds the counts and timing of one end-to-end run.
type RunSummary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	InputPath  string    `json:"input_path" yaml:"input_path"`
	OutputDir  string    `json:"output_dir" yaml:"output_dir"`
	Policy     string    `json:"policy" yaml:"policy"`
	Total      int       `json:"total" yaml:"total"`
	Downloaded int       `json:"downloaded" yaml:"downloaded"`
	Failed     int       `json:"failed" yaml:"failed"`
	Archives   []string  `json:"archives,omitempty" yaml:"archives,omitempty"`
	Moved      []string  `json:"moved,omitempty" yaml:"moved,omitempty"`
	Published  []string  `json:"published,omitempty" yaml:"published,omitempty"`
	Started    time.Time `json:"started" yaml:"started"`
	Finished   time.Time `json:"finished" yaml:"finished"`
}

// Status renders the final status line shown when a run completes.
func (s RunSummary) Status() string {
	return fmt.Sprintf("Done: %d files → %d zips", s.Downloaded, len(s.Archives))
}
