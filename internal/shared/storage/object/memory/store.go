package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"trainee-backend/internal/shared/storage/object"
)

// Call records a single store invocation.
type Call struct {
	Op  string
	Key string
	ACL object.ACL
}

// Object is a stored blob with its access control.
type Object struct {
	Data        []byte
	ACL         object.ACL
	ContentType string
}

// Store is an in-memory ObjectStore used by tests and the "memory" backend.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
	calls   []Call

	// Fail, when set, is consulted before every call; a non-nil error is returned as-is.
	Fail func(op, key string) error
}

// New constructs an empty Store.
func New() *Store {
	return &Store{objects: make(map[string]Object)}
}

// Upload stores a copy of r's content at key.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, acl object.ACL) error {
	s.record("upload", key, acl)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail("upload", key); err != nil {
		return err
	}
	if err := object.ValidateKey(key); err != nil {
		return err
	}
	mimeType, body, err := object.SniffContentType(r)
	if err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: err}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return &object.StorageError{Op: "upload", Key: key, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: data, ACL: acl, ContentType: mimeType}
	return nil
}

// Download returns a reader over a copy of the stored bytes.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.record("download", key, "")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fail("download", key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory download key=%s: %w", key, object.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.Data...))), nil
}

// Delete removes key; absent keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.record("delete", key, "")
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail("delete", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns the stored object, if any.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Put seeds an object without recording a call.
func (s *Store) Put(key string, data []byte, acl object.ACL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ACL: acl}
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Calls returns the recorded invocations in order.
func (s *Store) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Call(nil), s.calls...)
}

func (s *Store) record(op, key string, acl object.ACL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Key: key, ACL: acl})
}

func (s *Store) fail(op, key string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, key)
}

var _ object.ObjectStore = (*Store)(nil)
