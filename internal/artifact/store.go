// Package artifact persists generated project files on the local filesystem
// and packages whole projects into zip archives for download. The store is a
// plain directory tree: one subdirectory per project ID, artifact paths
// relative to it.
package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports a project or artifact that does not exist in the store.
var ErrNotFound = errors.New("artifact not found")

// FileInfo describes one stored artifact.
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// Store writes and reads project artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// ProjectDir returns the directory holding one project's artifacts.
func (s *Store) ProjectDir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

// WriteArtifact stores content at relPath inside the project directory,
// creating parent directories. Writing the same path twice overwrites, so
// re-synthesis of a project is idempotent at the store level.
func (s *Store) WriteArtifact(projectID, relPath string, content []byte) (string, error) {
	clean, err := s.cleanRel(relPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.ProjectDir(projectID), clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", clean, err)
	}
	return full, nil
}

// ReadArtifact returns the content of one stored artifact.
func (s *Store) ReadArtifact(projectID, relPath string) ([]byte, error) {
	clean, err := s.cleanRel(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.ProjectDir(projectID), clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", clean, err)
	}
	return data, nil
}

// ListArtifacts walks a project directory and returns its files sorted by
// path. A missing project yields ErrNotFound.
func (s *Store) ListArtifacts(projectID string) ([]FileInfo, error) {
	dir := s.ProjectDir(projectID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat project dir: %w", err)
	}

	var files []FileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, FileInfo{
			Name: d.Name(),
			Path: rel,
			Kind: kindOf(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// PackageProject zips a project directory into <root>/<projectID>.zip and
// returns the archive path. The archive is rebuilt on every call.
func (s *Store) PackageProject(projectID string) (string, error) {
	dir := s.ProjectDir(projectID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat project dir: %w", err)
	}

	archivePath := filepath.Join(s.root, projectID+".zip")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return "", fmt.Errorf("failed to package project: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	return archivePath, nil
}

// cleanRel normalizes an artifact path and rejects escapes above the project
// directory.
func (s *Store) cleanRel(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid artifact path %q", relPath)
	}
	return clean, nil
}

func kindOf(relPath string) string {
	base := filepath.Base(relPath)
	switch {
	case base == "model.go":
		return "model"
	case base == "api.go":
		return "api"
	case base == "go.mod":
		return "manifest"
	case base == "README.md":
		return "docs"
	case strings.HasSuffix(base, ".html"):
		return "ui"
	default:
		return "file"
	}
}
