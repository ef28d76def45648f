// Package adapter contains the infrastructure behind the spectra workflow:
// filesystem access, compiling and running targets, coverage parsing,
// target descriptors and session storage.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "spectra.dev/pkg/spectra/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the domain layer needs
// to stage a target for execution, so workflows can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// CreateTempDir creates a scratch directory for one execution.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct {
	tempRoot string
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter. Temporary
// directories are created under tempRoot, or os.TempDir() when empty.
func NewLocalSourceFSAdapter(tempRoot string) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{tempRoot: tempRoot}
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	// #nosec G304 - path is a user supplied target, reading it is the point
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(_ context.Context, path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// CreateTempDir creates a temporary directory.
func (a *LocalSourceFSAdapter) CreateTempDir(ctx context.Context, pattern string) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp(a.tempRoot, pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// WriteFile writes content to a file with the given permissions, creating
// parent directories as needed.
func (a *LocalSourceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
