// Package tempfile tracks request-scoped temporary files so that each one is
// removed exactly once, however the request ends.
package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// FilesystemError reports a temp-file operation that failed.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("tempfile %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Scope owns a set of temp files. The zero value is not usable; use NewScope.
type Scope struct {
	dir     string
	mu      sync.Mutex
	paths   []string
	removed map[string]bool

	// Remove deletes a path; os.Remove by default.
	Remove func(path string) error
}

// NewScope returns a scope that creates files under dir (os.TempDir when empty).
func NewScope(dir string) *Scope {
	return &Scope{dir: dir, removed: make(map[string]bool), Remove: os.Remove}
}

// Create makes a new uniquely named file and registers it before returning.
func (s *Scope) Create(pattern string) (*os.File, error) {
	if dir := s.dir; dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, &FilesystemError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return nil, &FilesystemError{Op: "create", Path: s.dir, Err: err}
	}
	s.Track(f.Name())
	return f, nil
}

// Path reserves a unique path for a file written by someone else (e.g. an
// encoder that opens its own destination). The empty placeholder is registered.
func (s *Scope) Path(pattern string) (string, error) {
	f, err := s.Create(pattern)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", &FilesystemError{Op: "close", Path: f.Name(), Err: err}
	}
	return f.Name(), nil
}

// Track registers an existing path for cleanup.
func (s *Scope) Track(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		if p == path {
			return
		}
	}
	s.paths = append(s.paths, path)
}

// Paths returns the registered paths in creation order.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Cleanup removes every registered file that has not been removed yet. Files
// that are already gone count as removed. Errors are joined, never retried.
func (s *Scope) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, p := range s.paths {
		if s.removed[p] {
			continue
		}
		s.removed[p] = true
		if err := s.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, &FilesystemError{Op: "remove", Path: p, Err: err})
		}
	}
	return errors.Join(errs...)
}
