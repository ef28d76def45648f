// Package pkg holds spectra utilities that do not depend on the domain.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSpillDir is the directory used when NewFileSpill gets an empty dir.
var DefaultSpillDir = filepath.Join(os.TempDir(), "spectra-spill")

// errStop ends a scan early without reporting an error.
var errStop = errors.New("stop scan")

// FileSpill is an append-only sequence of T kept in a gob file, so long runs
// do not hold every item in memory.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(fn func(index uint64, item T) error) error
	Close() error
	Remove() error
}

type fileSpill[T any] struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *gob.Encoder
	length  uint64
	closed  bool
}

// NewFileSpill creates an empty spill file under dir.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = DefaultSpillDir
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spill dir %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "spill-*.gob")
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	slog.Debug("Created spill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

func (f *fileSpill[T]) Path() string {
	return f.path
}

func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.appendLocked(item)
}

// AppendBatch appends items in order under a single lock.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range items {
		if err := f.appendLocked(item); err != nil {
			return err
		}
	}

	return nil
}

func (f *fileSpill[T]) appendLocked(item T) error {
	if f.closed {
		return fmt.Errorf("append to closed spill %s", f.path)
	}

	if err := f.encoder.Encode(item); err != nil {
		return fmt.Errorf("encode spill item %d: %w", f.length, err)
	}

	f.length++

	return nil
}

// Get decodes items from the start of the file up to index.
func (f *fileSpill[T]) Get(index uint64) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found T

	if index >= f.length {
		return found, fmt.Errorf("index %d out of bounds (length %d)", index, f.length)
	}

	err := f.scan(func(i uint64, item T) error {
		if i == index {
			found = item
			return errStop
		}

		return nil
	})

	return found, err
}

// Range calls fn for every item in append order. An error from fn stops the
// iteration and is returned unchanged.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.scan(fn)
}

func (f *fileSpill[T]) scan(fn func(index uint64, item T) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open spill: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("Failed to close spill reader", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := range f.length {
		var item T
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("spill %s truncated at item %d", f.path, i)
			}

			return fmt.Errorf("decode spill item %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}

			return err
		}
	}

	return nil
}

// Close stops writes. Items stay readable until Remove.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closeLocked()
}

func (f *fileSpill[T]) closeLocked() error {
	if f.closed {
		return nil
	}

	f.closed = true

	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close spill %s: %w", f.path, err)
	}

	slog.Debug("Closed spill", "path", f.path, "length", f.length)

	return nil
}

// Remove closes the spill and deletes its file.
func (f *fileSpill[T]) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.closeLocked(); err != nil {
		return err
	}

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove spill %s: %w", f.path, err)
	}

	return nil
}
