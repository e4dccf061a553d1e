package tempfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanupRemovesEveryRegisteredFile(t *testing.T) {
	dir := t.TempDir()
	scope := NewScope(filepath.Join(dir, "uploads"))

	f, err := scope.Create("original-*")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = f.Close()
	p, err := scope.Path("large-*.jpg")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}

	if err := scope.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, path := range []string{f.Name(), p} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
}

func TestCleanupRemovesEachFileOnce(t *testing.T) {
	scope := NewScope(t.TempDir())
	calls := map[string]int{}
	scope.Remove = func(path string) error {
		calls[path]++
		return os.Remove(path)
	}

	p, err := scope.Path("x-*")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	scope.Track(p)

	_ = scope.Cleanup()
	_ = scope.Cleanup()
	if calls[p] != 1 {
		t.Fatalf("expected one removal, got %d", calls[p])
	}
}

func TestCleanupIgnoresMissingFiles(t *testing.T) {
	scope := NewScope(t.TempDir())
	p, err := scope.Path("gone-*")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := scope.Cleanup(); err != nil {
		t.Fatalf("expected nil for already-removed file, got %v", err)
	}
}

func TestCleanupReportsFilesystemErrors(t *testing.T) {
	scope := NewScope(t.TempDir())
	a, _ := scope.Path("a-*")
	b, _ := scope.Path("b-*")
	scope.Remove = func(path string) error {
		if path == a {
			return errors.New("device busy")
		}
		return os.Remove(path)
	}

	err := scope.Cleanup()
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %v", err)
	}
	if fsErr.Path != a || fsErr.Op != "remove" {
		t.Fatalf("unexpected error detail %+v", fsErr)
	}
	if _, statErr := os.Stat(b); !os.IsNotExist(statErr) {
		t.Fatalf("expected other files still removed")
	}
}
