// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// maxErrorBody caps how much of a failed response body is quoted in errors.
const maxErrorBody = 256

// StatusError reports a response outside the 2xx range. Body is a prefix of
// the response body flattened to one line.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// NewClient returns an HTTP client for cfg. A zero Timeout leaves the
// client without a deadline so the transport defaults apply.
func NewClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// Do sends req once and returns the response when the status is 2xx.
// Any other status drains and closes the body and yields a *StatusError.
// No retries are attempted.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return nil, &StatusError{
		StatusCode: resp.StatusCode,
		URL:        displayURL(req),
		Body:       types.SingleLine(string(bytes.TrimSpace(snippet))),
	}
}

// displayURL drops the query string, which for signed URLs holds the signature.
func displayURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.Fragment = ""
	return u.Redacted()
}
