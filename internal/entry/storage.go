package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage defines the interface for preview file operations
type Storage interface {
	// Save saves a file and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error
}

// LocalStorage implements the Storage interface using the local
// filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(filepath.Join(l.basePath, path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Preview owns the image of the most recent successful submission.
// The held file is a manually managed resource: replacing or
// releasing it deletes the previous file exactly once, so the
// storage directory never accumulates stale previews.
type Preview struct {
	mu      sync.Mutex
	storage Storage
	current string
}

// NewPreview creates a Preview backed by the given storage.
func NewPreview(storage Storage) *Preview {
	return &Preview{storage: storage}
}

// Replace stores a new preview file and deletes the superseded one.
func (p *Preview) Replace(filename string, data []byte) (string, error) {
	saved, err := p.storage.Save(filename, data)
	if err != nil {
		return "", fmt.Errorf("saving preview: %w", err)
	}

	p.mu.Lock()
	previous := p.current
	p.current = saved
	p.mu.Unlock()

	if previous != "" && previous != saved {
		if err := p.storage.Delete(previous); err != nil {
			return saved, fmt.Errorf("releasing previous preview: %w", err)
		}
	}
	return saved, nil
}

// Current returns the path and contents of the held preview, or an
// empty path when none is held.
func (p *Preview) Current() (string, []byte, error) {
	p.mu.Lock()
	path := p.current
	p.mu.Unlock()

	if path == "" {
		return "", nil, nil
	}
	data, err := p.storage.Get(path)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// Release deletes the held preview, if any. Safe to call more than
// once; only the first call after a Replace deletes anything.
func (p *Preview) Release() error {
	p.mu.Lock()
	path := p.current
	p.current = ""
	p.mu.Unlock()

	if path == "" {
		return nil
	}
	return p.storage.Delete(path)
}
