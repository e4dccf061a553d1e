package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"trainee-backend/internal/shared/storage/object"
)

func TestStoreRoundTripAndACL(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Upload(ctx, "images/profile/t1/large.jpg", bytes.NewReader([]byte("payload")), object.ACLPublic); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := s.Download(ctx, "images/profile/t1/large.jpg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "payload" {
		t.Fatalf("unexpected content %q", got)
	}
	obj, ok := s.Get("images/profile/t1/large.jpg")
	if !ok || obj.ACL != object.ACLPublic {
		t.Fatalf("expected public object, got %+v", obj)
	}
}

func TestStoreDownloadMissing(t *testing.T) {
	if _, err := New().Download(context.Background(), "nope"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreFailHookAndCalls(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.Fail = func(op, key string) error {
		if op == "delete" {
			return boom
		}
		return nil
	}
	ctx := context.Background()
	s.Put("a", []byte("x"), object.ACLPrivate)
	if err := s.Delete(ctx, "a"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, ok := s.Get("a"); !ok {
		t.Fatalf("failed delete must keep the object")
	}
	calls := s.Calls()
	if len(calls) != 1 || calls[0].Op != "delete" || calls[0].Key != "a" {
		t.Fatalf("unexpected calls %+v", calls)
	}

	s.Fail = nil
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	if keys := s.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}
}
