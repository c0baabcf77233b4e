// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch resolves a part number to a signed URL through the lookup
// API and downloads the document behind it.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdf-roundup/internal/httputil"
	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// Extension is appended to every downloaded document.
const Extension = ".pdf"

// LookupError reports a failed or unusable lookup response.
type LookupError struct {
	Identifier string
	Err        error
}

func (e *LookupError) Error() string { return "lookup failed: " + e.Err.Error() }
func (e *LookupError) Unwrap() error { return e.Err }

// RetrievalError reports a failed download from a resolved URL.
type RetrievalError struct {
	Identifier string
	URL        string
	Err        error
}

func (e *RetrievalError) Error() string { return "retrieval failed: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// errNoSignedURL is the cause when neither URL field is present.
var errNoSignedURL = fmt.Errorf("no signed URL in response")

// Client talks to the lookup API and the storage behind its signed URLs.
type Client struct {
	HTTP   *http.Client
	APIKey string
	cfg    types.FetchConfig
}

// NewClient returns a Client for cfg authenticated with apiKey.
func NewClient(httpClient *http.Client, cfg types.FetchConfig, apiKey string) *Client {
	if httpClient == nil {
		httpClient = httputil.NewClient(cfg.HTTPConfig)
	}
	return &Client{HTTP: httpClient, APIKey: apiKey, cfg: cfg}
}

type lookupRequest struct {
	PartNumber string `json:"part_number"`
}

type lookupResponse struct {
	SignedURL string `json:"signed_url"`
	URL       string `json:"url"`
}

// Lookup asks the API for a short-lived download URL for identifier.
// The "signed_url" field is preferred; "url" is the fallback.
func (c *Client) Lookup(ctx context.Context, identifier string) (string, error) {
	body, err := json.Marshal(lookupRequest{PartNumber: identifier})
	if err != nil {
		return "", &LookupError{Identifier: identifier, Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &LookupError{Identifier: identifier, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.Do(ctx, c.HTTP, req)
	if err != nil {
		return "", &LookupError{Identifier: identifier, Err: err}
	}
	defer resp.Body.Close()

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", &LookupError{Identifier: identifier, Err: fmt.Errorf("parsing response: %w", err)}
	}

	switch {
	case lr.SignedURL != "":
		return lr.SignedURL, nil
	case lr.URL != "":
		return lr.URL, nil
	default:
		return "", &LookupError{Identifier: identifier, Err: errNoSignedURL}
	}
}

// Retrieve streams url into destPath through a temporary file that is
// renamed into place on success. It returns the number of bytes written.
func (c *Client) Retrieve(ctx context.Context, identifier, url, destPath string) (int64, error) {
	fail := func(err error) (int64, error) {
		return 0, &RetrievalError{Identifier: identifier, URL: url, Err: err}
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("creating request: %w", err))
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.Do(ctx, c.HTTP, req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fail(fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("writing download: %w", copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("closing temp file: %w", closeErr))
	}

	if c.cfg.ValidatePDF {
		if err := validatePDF(tmpPath); err != nil {
			os.Remove(tmpPath)
			return fail(fmt.Errorf("invalid PDF: %w", err))
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("renaming temp file: %w", err))
	}
	return n, nil
}

// Fetch looks up identifier and downloads its document to destPath.
func (c *Client) Fetch(ctx context.Context, identifier, destPath string) types.DownloadResult {
	res := types.DownloadResult{Identifier: identifier}

	url, err := c.Lookup(ctx, identifier)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = url

	n, err := c.Retrieve(ctx, identifier, url, destPath)
	if err != nil {
		res.Err = err
		return res
	}
	res.Path = destPath
	res.Size = n
	return res
}

func validatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}
