// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish uploads a run's archives or moved files to object storage.
// Targets are "s3://bucket/prefix" (AWS or S3-compatible) and
// "gs://bucket/prefix" (Google Cloud Storage).
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// Supported target schemes.
const (
	SchemeS3  = "s3"
	SchemeGCS = "gs"
)

// ErrInvalidTarget is returned by ParseTarget for malformed targets.
var ErrInvalidTarget = errors.New("invalid publish target")

// Target is a parsed bucket location.
type Target struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseTarget parses "s3://bucket/prefix" or "gs://bucket/prefix". The
// prefix is optional.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w %q: %v", ErrInvalidTarget, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != SchemeS3 && scheme != SchemeGCS {
		return Target{}, fmt.Errorf("%w %q: scheme must be s3 or gs", ErrInvalidTarget, raw)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("%w %q: missing bucket", ErrInvalidTarget, raw)
	}
	return Target{
		Scheme: scheme,
		Bucket: u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

// Key returns the object key for a local file name under the target prefix.
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

// URI renders the object location for key.
func (t Target) URI(key string) string {
	return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, key)
}

func (t Target) String() string {
	if t.Prefix == "" {
		return fmt.Sprintf("%s://%s", t.Scheme, t.Bucket)
	}
	return t.URI(t.Prefix)
}

// Publisher uploads one local file and returns its object URI.
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// Error reports a failed upload and the files that were not published.
type Error struct {
	Path      string
	Remaining []string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publishing %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PublishAll uploads paths in order below the target prefix. It stops at the
// first failure and returns the URIs uploaded so far with an *Error.
func PublishAll(ctx context.Context, p Publisher, t Target, paths []string) ([]string, error) {
	uris := make([]string, 0, len(paths))
	for i, local := range paths {
		if err := ctx.Err(); err != nil {
			return uris, &Error{Path: local, Remaining: paths[i:], Err: err}
		}
		uri, err := p.Publish(ctx, local, t.Key(filepath.Base(local)))
		if err != nil {
			return uris, &Error{Path: local, Remaining: paths[i:], Err: err}
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

// New returns the publisher for target. The returned close function
// releases any client the publisher holds.
func New(ctx context.Context, t Target, cfg types.PublishConfig) (Publisher, func() error, error) {
	switch t.Scheme {
	case SchemeS3:
		p, err := NewS3Publisher(ctx, t.Bucket, cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil
	case SchemeGCS:
		p, err := NewGCSPublisher(ctx, t.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: scheme %q", ErrInvalidTarget, t.Scheme)
	}
}
