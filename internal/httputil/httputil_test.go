// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

func TestDo_Success(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_Non2xxIsStatusErrorWithoutRetry(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("  slow down \n"))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/doc.pdf?X-Amz-Signature=secret", nil)
	require.NoError(t, err)

	_, err = Do(context.Background(), ts.Client(), req)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "slow down", se.Body)
	assert.NotContains(t, se.Error(), "secret")
	assert.True(t, strings.HasSuffix(se.URL, "/doc.pdf"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_MultiLineBodyIsFlattened(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal error\ntrace line 1\r\ntrace line 2\n"))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Do(context.Background(), ts.Client(), req)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Internal error trace line 1 trace line 2", se.Body)
	assert.NotContains(t, se.Error(), "\n")
}

func TestDo_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Do(ctx, ts.Client(), req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewClient(types.HTTPConfig{}).Timeout)
	assert.Equal(t, 5*time.Second, NewClient(types.HTTPConfig{Timeout: 5 * time.Second}).Timeout)
}
