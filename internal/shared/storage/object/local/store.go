package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"trainee-backend/internal/shared/storage/object"
)

const aclSuffix = ".acl"

var rename = os.Rename

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Upload writes r to key through a temp file and renames it into place, so
// readers never observe a partial object.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, acl object.ACL) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("mkdir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("create temp: %w", err)}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("write body: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("close temp: %w", err)}
	}

	// The sidecar and the object are swapped one at a time. Ordering them by
	// the target ACL means the in-between state is never more public than
	// either the old or the new object.
	if acl != object.ACLPublic {
		if err := writeACL(fullPath, acl); err != nil {
			return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("write acl: %w", err)}
		}
	}
	if err := rename(tmpName, fullPath); err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("rename: %w", err)}
	}
	committed = true
	if acl == object.ACLPublic {
		if err := writeACL(fullPath, acl); err != nil {
			return &object.StorageError{Op: "upload", Key: key, Err: fmt.Errorf("write acl: %w", err)}
		}
	}
	return nil
}

// writeACL replaces the sidecar of fullPath atomically.
func writeACL(fullPath string, acl object.ACL) error {
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".acl-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(string(acl)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := rename(tmp.Name(), fullPath+aclSuffix); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Download opens a stored object for reading.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local open key=%s: %w", key, object.ErrNotFound)
		}
		return nil, &object.StorageError{Op: "download", Key: key, Err: err}
	}
	return f, nil
}

// Delete removes the object and its ACL sidecar. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	for _, p := range []string{fullPath, fullPath + aclSuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &object.StorageError{Op: "delete", Key: key, Err: err}
		}
	}
	return nil
}

// OpenPublic opens key only when it was uploaded with ACLPublic.
func (s *Store) OpenPublic(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, fmt.Errorf("local open key=%s: %w", key, object.ErrNotFound)
	}
	acl, err := os.ReadFile(fullPath + aclSuffix)
	if err != nil || object.ACL(strings.TrimSpace(string(acl))) != object.ACLPublic {
		return nil, fmt.Errorf("local open key=%s: %w", key, object.ErrNotFound)
	}
	return s.Download(ctx, key)
}

func (s *Store) resolve(key string) (string, error) {
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}
	if strings.HasSuffix(key, aclSuffix) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
