// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPrompter struct {
	answer string
	err    error
	calls  int
}

func (p *countingPrompter) PromptKey() (string, error) {
	p.calls++
	return p.answer, p.err
}

func TestGet(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, path string)
		override   string
		prompt     *countingPrompter
		want       string
		wantPrompt int
		wantErr    error
	}{
		{
			name: "reads existing key file",
			setup: func(t *testing.T, path string) {
				require.NoError(t, Write(path, "  file-key  "))
			},
			prompt:     &countingPrompter{answer: "unused"},
			want:       "file-key",
			wantPrompt: 0,
		},
		{
			name:       "prompts when file missing",
			prompt:     &countingPrompter{answer: " typed-key \n"},
			want:       "typed-key",
			wantPrompt: 1,
		},
		{
			name: "prompts when file has empty key",
			setup: func(t *testing.T, path string) {
				require.NoError(t, Write(path, ""))
			},
			prompt:     &countingPrompter{answer: "fresh"},
			want:       "fresh",
			wantPrompt: 1,
		},
		{
			name:     "override wins and skips prompt",
			override: "flag-key",
			prompt:   &countingPrompter{answer: "unused"},
			want:     "flag-key",
		},
		{
			name:       "empty answer is fatal",
			prompt:     &countingPrompter{answer: "   "},
			wantPrompt: 1,
			wantErr:    ErrNoKey,
		},
		{
			name:       "cancelled prompt is fatal",
			prompt:     &countingPrompter{err: errors.New("EOF from terminal")},
			wantPrompt: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "dir", "key.json")
			if tt.setup != nil {
				tt.setup(t, path)
			}
			s := &Store{Path: path, Override: tt.override, Prompt: tt.prompt}

			got, err := s.Get()
			assert.Equal(t, tt.wantPrompt, tt.prompt.calls)
			if tt.want == "" {
				var ce *CredentialError
				require.True(t, errors.As(err, &ce), "want *CredentialError, got %T (%v)", err, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPersistsPromptedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pdf_roundup", "key.json")
	s := &Store{Path: path, Prompt: &countingPrompter{answer: "secret-123"}}

	_, err := s.Get()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var kf map[string]string
	require.NoError(t, json.Unmarshal(data, &kf))
	assert.Equal(t, map[string]string{"api_key": "secret-123"}, kf)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGetPromptsOncePerStore(t *testing.T) {
	p := &countingPrompter{answer: "k"}
	s := &Store{Path: filepath.Join(t.TempDir(), "key.json"), Prompt: p}

	for range 3 {
		got, err := s.Get()
		require.NoError(t, err)
		assert.Equal(t, "k", got)
	}
	assert.Equal(t, 1, p.calls)
}

func TestGetRejectsCorruptKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	p := &countingPrompter{answer: "k"}

	_, err := (&Store{Path: path, Prompt: p}).Get()
	var ce *CredentialError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, p.calls)
}

func TestGetWithoutPrompter(t *testing.T) {
	_, err := (&Store{Path: filepath.Join(t.TempDir(), "key.json")}).Get()
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, Write(path, "k"))
	require.NoError(t, Remove(path))
	require.NoError(t, Remove(path))
	_, err := Read(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := LinePrompter{In: strings.NewReader("abc123\nignored\n"), Out: &out}
	got, err := p.PromptKey()
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
	assert.Contains(t, out.String(), "API Key")

	got, err = LinePrompter{In: strings.NewReader("no-newline"), Out: &out}.PromptKey()
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	_, err = LinePrompter{In: strings.NewReader(""), Out: &out}.PromptKey()
	assert.Error(t, err)
}
