// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the lookup API key. The key lives in a small JSON
// file ({"api_key": "..."}) under the user's home directory; when the file
// is missing the user is prompted once and the answer is saved there.
package secrets

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoKey is the cause of a CredentialError when no key was supplied.
var ErrNoKey = errors.New("API key is required")

// CredentialError reports that no usable key could be obtained. It is
// fatal to a run.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Path == "" {
		return "credential: " + e.Err.Error()
	}
	return fmt.Sprintf("credential %s: %v", e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Prompter asks the user for a key. An empty answer means cancelled.
type Prompter interface {
	PromptKey() (string, error)
}

// keyFile is the on-disk form of the credential.
type keyFile struct {
	APIKey string `json:"api_key"`
}

// DefaultPath returns ~/.pdf_roundup/key.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".pdf_roundup", "key.json"), nil
}

// Store resolves the key at most once per process and caches it.
type Store struct {
	// Path is the key file location.
	Path string

	// Override, when non-empty, is returned as-is and never persisted.
	Override string

	// Prompt is used when neither Override nor the key file supplies a key.
	Prompt Prompter

	once sync.Once
	key  string
	err  error
}

// Get returns the key, prompting and persisting it on first use if needed.
func (s *Store) Get() (string, error) {
	s.once.Do(func() {
		s.key, s.err = s.resolve()
	})
	return s.key, s.err
}

func (s *Store) resolve() (string, error) {
	if k := strings.TrimSpace(s.Override); k != "" {
		return k, nil
	}

	key, err := Read(s.Path)
	if err == nil && key != "" {
		return key, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", &CredentialError{Path: s.Path, Err: err}
	}

	if s.Prompt == nil {
		return "", &CredentialError{Path: s.Path, Err: ErrNoKey}
	}
	key, err = s.Prompt.PromptKey()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", &CredentialError{Err: fmt.Errorf("reading key: %w", err)}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &CredentialError{Err: ErrNoKey}
	}

	if err := Write(s.Path, key); err != nil {
		return "", &CredentialError{Path: s.Path, Err: err}
	}
	return key, nil
}

// Read returns the api_key field of the key file at path. A missing file
// yields an error wrapping os.ErrNotExist.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return "", fmt.Errorf("parsing key file: %w", err)
	}
	return strings.TrimSpace(kf.APIKey), nil
}

// Write saves key to path, creating parent directories as needed.
func Write(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	data, err := json.Marshal(keyFile{APIKey: key})
	if err != nil {
		return fmt.Errorf("marshaling key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Remove deletes the key file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LinePrompter writes a prompt to Out and reads one line from In.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptKey implements Prompter.
func (p LinePrompter) PromptKey() (string, error) {
	fmt.Fprint(p.Out, "Enter your PDF API Key: ")
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
