// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog writes the per-run text log: one line per processed
// identifier, appended as results arrive and cleared when a new run starts.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the log file name used when none is configured.
const DefaultName = "run_log.txt"

// Log is an append-only line log backed by a file.
type Log struct {
	f    *os.File
	path string
}

// Open truncates (or creates) dir/name and returns a Log appending to it.
func Open(dir, name string) (*Log, error) {
	if name == "" {
		name = DefaultName
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes line followed by a newline and syncs it to disk.
func (l *Log) Append(line string) error {
	line = strings.TrimRight(line, "\n")
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending to run log: %w", err)
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.f.Close()
}
