// Package filestore persists raw uploads on the local filesystem.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// Store writes uploads into one flat directory as "<id>_<basename>".
type Store struct {
	dir    string
	prefix string
}

// New creates dir if needed. publicPrefix is the URL path the directory is served under.
func New(dir, publicPrefix string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, prefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Save writes raw atomically and returns its public location.
// A partially written file is never visible under its final name.
func (s *Store) Save(ctx context.Context, id, filename string, raw []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save %s: %w: %w", filename, domain.ErrStorageFailure, err)
	}

	base := baseName(filename)
	if id == "" || base == "" {
		return "", fmt.Errorf("save %q: %w: invalid name", filename, domain.ErrStorageFailure)
	}
	name := id + "_" + base

	if err := s.writeAtomic(name, raw); err != nil {
		return "", fmt.Errorf("save %s: %w: %w", name, domain.ErrStorageFailure, err)
	}
	return path.Join(s.prefix, name), nil
}

// Remove deletes the file behind a location returned by Save. Missing files are ignored.
func (s *Store) Remove(_ context.Context, location string) error {
	name := baseName(location)
	if name == "" {
		return fmt.Errorf("remove %q: invalid location", location)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeAtomic(name string, raw []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}

// baseName strips any directory part, accepting both separators since clients may send Windows paths.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if p == "." || p == ".." {
		return ""
	}
	return p
}
