package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-roundup/internal/fetch"
	"github.com/pdiddy/pdf-roundup/pkg/types"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe(types.DownloadResult{Identifier: "A", Path: "/w/A.pdf", Size: 100}, 20*time.Millisecond)
	m.Observe(types.DownloadResult{Identifier: "B", Path: "/w/B.pdf", Size: 50}, 10*time.Millisecond)
	m.Observe(types.DownloadResult{Identifier: "X", Err: &fetch.LookupError{Identifier: "X", Err: errors.New("HTTP 404")}}, time.Millisecond)
	m.Observe(types.DownloadResult{Identifier: "Y", Err: &fetch.RetrievalError{Identifier: "Y", Err: errors.New("HTTP 500")}}, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.lookups.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.retrievals.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrievals.WithLabelValues("error")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.bytes))
}

func TestRunsAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.AddArchives(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.archives))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.archives))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.AddArchives(2)
	m.Observe(types.DownloadResult{Identifier: "A", Path: "/w/A.pdf", Size: 7}, time.Millisecond)

	path := filepath.Join(t.TempDir(), "pdf_roundup.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "pdf_roundup_archives_total 2"), text)
	assert.Contains(t, text, `pdf_roundup_lookups_total{status="success"} 1`)
	assert.Contains(t, text, "pdf_roundup_downloaded_bytes_total 7")
}
