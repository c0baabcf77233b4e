// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package packager turns the downloaded files of a run into output
// artifacts: files moved one by one, a single archive, or a numbered series
// of archives split by file count or by cumulative size.
package packager

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

const (
	singleArchiveName = "output.zip"
	manifestName      = "manifest.yaml"
)

// MoveError reports a failure while moving files into the output directory.
// Remaining lists the files that were not moved.
type MoveError struct {
	Path      string
	Remaining []string
	Err       error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("moving %s: %v (%d file(s) not moved)", filepath.Base(e.Path), e.Err, len(e.Remaining))
}

func (e *MoveError) Unwrap() error { return e.Err }

// ArchiveError reports a failure while writing an archive. Remaining lists
// the files that were not archived.
type ArchiveError struct {
	Path      string
	Remaining []string
	Err       error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("writing %s: %v (%d file(s) not archived)", filepath.Base(e.Path), e.Err, len(e.Remaining))
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// ErrExists is the cause of a MoveError under the fail collision policy.
var ErrExists = errors.New("destination already exists")

// Archive is one produced zip file and the entry names it holds.
type Archive struct {
	Path    string   `json:"path" yaml:"path"`
	Members []string `json:"members" yaml:"members"`
}

// Manifest lists what a packaging step produced, in creation order.
type Manifest struct {
	Archives []Archive `json:"archives,omitempty" yaml:"archives,omitempty"`
	Moved    []string  `json:"moved,omitempty" yaml:"moved,omitempty"`
}

// ArchivePaths returns the archive file paths in creation order.
func (m Manifest) ArchivePaths() []string {
	paths := make([]string, len(m.Archives))
	for i, a := range m.Archives {
		paths[i] = a.Path
	}
	return paths
}

// Outputs returns every produced artifact: archives, or moved files.
func (m Manifest) Outputs() []string {
	if len(m.Archives) > 0 {
		return m.ArchivePaths()
	}
	return m.Moved
}

// Packager writes artifacts into OutputDir. When WorkDir is set it is
// removed after every Package call, whatever the outcome.
type Packager struct {
	OutputDir     string
	WorkDir       string
	OnCollision   types.CollisionPolicy
	WriteManifest bool
	Logger        *slog.Logger
}

// Package applies policy to files, which must be in download order.
func (p *Packager) Package(files []string, policy types.OutputPolicy) (Manifest, error) {
	if p.WorkDir != "" {
		defer func() {
			if err := os.RemoveAll(p.WorkDir); err != nil {
				p.logger().Warn("removing work directory", "path", p.WorkDir, "error", err)
			}
		}()
	}

	if err := policy.Validate(); err != nil {
		return Manifest{}, err
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("creating output directory: %w", err)
	}

	var (
		m   Manifest
		err error
	)
	switch policy.Mode {
	case types.PolicyNone:
		m, err = p.moveAll(files)
	case types.PolicySingle:
		m, err = p.archiveGroups(policy.Mode, [][]string{files})
	case types.PolicyCount:
		var groups [][]string
		if groups, err = PlanByCount(files, policy.Count); err == nil {
			m, err = p.archiveGroups(policy.Mode, groups)
		}
	case types.PolicySize:
		var (
			sizes  []int64
			failed int
		)
		if sizes, failed, err = fileSizes(files); err != nil {
			return Manifest{}, &ArchiveError{Path: files[failed], Remaining: files, Err: fmt.Errorf("reading file size: %w", err)}
		}
		var groups [][]string
		if groups, err = PlanBySize(files, sizes, policy.MaxBytes); err == nil {
			m, err = p.archiveGroups(policy.Mode, groups)
		}
	}
	if err != nil {
		return m, err
	}

	if p.WriteManifest {
		if err := p.writeManifest(m); err != nil {
			return m, err
		}
	}
	return m, nil
}

func (p *Packager) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// archiveName returns output.zip for the single policy and output_<N>.zip
// (N from 1) otherwise.
func archiveName(mode types.PolicyMode, index int) string {
	if mode == types.PolicySingle {
		return singleArchiveName
	}
	return fmt.Sprintf("output_%d.zip", index+1)
}

func (p *Packager) archiveGroups(mode types.PolicyMode, groups [][]string) (Manifest, error) {
	var m Manifest
	for k, group := range groups {
		path := filepath.Join(p.OutputDir, archiveName(mode, k))
		members, err := writeArchive(path, group)
		if err != nil {
			os.Remove(path)
			var remaining []string
			for _, g := range groups[k:] {
				remaining = append(remaining, g...)
			}
			return m, &ArchiveError{Path: path, Remaining: remaining, Err: err}
		}
		p.logger().Debug("wrote archive", "path", path, "files", len(members))
		m.Archives = append(m.Archives, Archive{Path: path, Members: members})
	}
	return m, nil
}

// writeArchive creates a flat, deflate-compressed zip at path holding files
// under their base names.
func writeArchive(path string, files []string) ([]string, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	zw := zip.NewWriter(out)
	members := make([]string, 0, len(files))
	for _, f := range files {
		if err := addFile(zw, f); err != nil {
			zw.Close()
			out.Close()
			return nil, fmt.Errorf("adding %s: %w", filepath.Base(f), err)
		}
		members = append(members, filepath.Base(f))
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return members, nil
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

func (p *Packager) moveAll(files []string) (Manifest, error) {
	var m Manifest
	for i, src := range files {
		dest := filepath.Join(p.OutputDir, filepath.Base(src))
		if _, err := os.Stat(dest); err == nil {
			if p.OnCollision == types.CollisionFail {
				return m, &MoveError{Path: src, Remaining: files[i:], Err: ErrExists}
			}
			p.logger().Debug("overwriting existing file", "path", dest)
		}
		if err := moveFile(src, dest); err != nil {
			return m, &MoveError{Path: src, Remaining: files[i:], Err: err}
		}
		m.Moved = append(m.Moved, dest)
	}
	return m, nil
}

// moveFile renames src to dest, replacing dest. When rename is not possible
// (for example across filesystems) it copies and removes the source.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".move-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (p *Packager) writeManifest(m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.OutputDir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
