// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  OutputPolicy
		wantErr bool
	}{
		{"none", OutputPolicy{Mode: PolicyNone}, false},
		{"single", OutputPolicy{Mode: PolicySingle}, false},
		{"count positive", OutputPolicy{Mode: PolicyCount, Count: 2}, false},
		{"count zero", OutputPolicy{Mode: PolicyCount}, true},
		{"count negative", OutputPolicy{Mode: PolicyCount, Count: -3}, true},
		{"size positive", OutputPolicy{Mode: PolicySize, MaxBytes: 5}, false},
		{"size zero", OutputPolicy{Mode: PolicySize}, true},
		{"unknown mode", OutputPolicy{Mode: "multi"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.Error(t, err)
			assert.True(t, errors.As(err, &cfgErr), "want *ConfigError, got %T", err)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"5", 5},
		{"10B", 10},
		{"1KB", 1024},
		{"512 kb", 512 * 1024},
		{"10MB", 10 << 20},
		{"2gb", 2 << 30},
		{"8589934591GB", 8589934591 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "MB", "-1KB", "0", "ten MB", "1.5MB", "17179869185GB", "9000000000GB", "9007199254740992KB"} {
		_, err := ParseSize(bad)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr), "ParseSize(%q) should fail with ConfigError", bad)
	}
}

func TestFormatSizeAndString(t *testing.T) {
	assert.Equal(t, "10MB", FormatSize(10<<20))
	assert.Equal(t, "1536B", FormatSize(1536))
	assert.Equal(t, "3KB", FormatSize(3072))
	assert.Equal(t, "size(10MB)", OutputPolicy{Mode: PolicySize, MaxBytes: 10 << 20}.String())
	assert.Equal(t, "count(100)", OutputPolicy{Mode: PolicyCount, Count: 100}.String())
	assert.Equal(t, "single", OutputPolicy{Mode: PolicySingle}.String())
}

func TestDownloadResultLine(t *testing.T) {
	ok := DownloadResult{Identifier: "A", URL: "https://x/a.pdf", Path: "/tmp/A.pdf"}
	assert.True(t, ok.OK())
	assert.Equal(t, "A: SUCCESS https://x/a.pdf", ok.Line())

	failed := DownloadResult{Identifier: "X", Err: errors.New("HTTP 404")}
	assert.False(t, failed.OK())
	assert.Equal(t, "X: ERROR HTTP 404", failed.Line())
}

func TestDownloadResultLineIsSingleLine(t *testing.T) {
	failed := DownloadResult{
		Identifier: "X\r\n1",
		Err:        errors.New("lookup failed: HTTP 500: Internal error\ntrace line 1\r\ntrace line 2\n"),
	}
	line := failed.Line()
	assert.NotContains(t, line, "\n")
	assert.NotContains(t, line, "\r")
	assert.Equal(t, "X 1: ERROR lookup failed: HTTP 500: Internal error trace line 1 trace line 2", line)

	ok := DownloadResult{Identifier: "A", URL: "https://x/a.pdf\n", Path: "/tmp/A.pdf"}
	assert.Equal(t, "A: SUCCESS https://x/a.pdf", ok.Line())
}

func TestSingleLine(t *testing.T) {
	tests := map[string]string{
		"plain":          "plain",
		"\nlead":         "lead",
		"trail\n\n":      "trail",
		"a\tb\x00c":      "a b c",
		"one\r\n\r\ntwo": "one two",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SingleLine(in), "SingleLine(%q)", in)
	}
}

func TestRunSummaryStatus(t *testing.T) {
	s := RunSummary{Downloaded: 3, Archives: []string{"a.zip", "b.zip"}}
	assert.Equal(t, "Done: 3 files → 2 zips", s.Status())
}
