package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ACL is the visibility attached to an object at upload time.
type ACL string

const (
	// ACLPublic objects are readable at their public URL without credentials.
	ACLPublic ACL = "public"
	// ACLPrivate objects are only reachable through the store.
	ACLPrivate ACL = "private"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects by key.
//
// Upload overwrites any existing object at key and returns once the backend has
// acknowledged the write. Delete succeeds when the key is already absent.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, acl ACL) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StorageError reports a transport or backend failure for a single store call.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object store %s key=%s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PublicURL joins the configured public base URL and a key.
func PublicURL(baseURL, key string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	k := strings.TrimLeft(key, "/")
	if base == "" {
		return "/" + k
	}
	return base + "/" + k
}

// ValidateKey rejects empty keys and keys that escape their namespace.
func ValidateKey(key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("storage key is required")
	}
	if strings.HasPrefix(k, "/") || strings.Contains(k, "\\") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("invalid storage key %q", key)
		}
	}
	return nil
}
