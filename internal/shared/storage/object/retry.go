package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds every store call. A zero policy means a single attempt
// with no timeout.
type RetryPolicy struct {
	// Timeout applies to each attempt. Zero disables it.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries uint64
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration
	// Notify is called before each retry.
	Notify func(op, key string, err error, next time.Duration)
}

type retryingStore struct {
	base   ObjectStore
	policy RetryPolicy
}

// WithRetry decorates a store with per-attempt timeouts and exponential backoff.
// ErrNotFound is never retried. Uploads are only retried when the body can be
// rewound.
func WithRetry(base ObjectStore, policy RetryPolicy) ObjectStore {
	if base == nil {
		return nil
	}
	return &retryingStore{base: base, policy: policy}
}

func (s *retryingStore) Upload(ctx context.Context, key string, r io.Reader, acl ACL) error {
	seeker, rewindable := r.(io.Seeker)
	start := int64(0)
	if rewindable {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			rewindable = false
		} else {
			start = pos
		}
	}

	attempt := 0
	return s.run(ctx, "upload", key, rewindable, func(ctx context.Context) error {
		if attempt > 0 {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return backoff.Permanent(fmt.Errorf("rewind upload body: %w", err))
			}
		}
		attempt++
		return s.base.Upload(ctx, key, r, acl)
	})
}

// Download holds the per-attempt timeout until the returned body is closed.
func (s *retryingStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := s.runWithCancel(ctx, "download", key, true, func(ctx context.Context, cancel context.CancelFunc) error {
		rc, err := s.base.Download(ctx, key)
		if err != nil {
			cancel()
			return err
		}
		body = &cancelOnClose{ReadCloser: rc, cancel: cancel}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *retryingStore) Delete(ctx context.Context, key string) error {
	return s.run(ctx, "delete", key, true, func(ctx context.Context) error {
		return s.base.Delete(ctx, key)
	})
}

func (s *retryingStore) run(ctx context.Context, op, key string, retryable bool, fn func(context.Context) error) error {
	return s.runWithCancel(ctx, op, key, retryable, func(ctx context.Context, cancel context.CancelFunc) error {
		defer cancel()
		return fn(ctx)
	})
}

func (s *retryingStore) runWithCancel(ctx context.Context, op, key string, retryable bool, fn func(context.Context, context.CancelFunc) error) error {
	attemptFn := func() error {
		attemptCtx, cancel := s.attemptContext(ctx)
		err := fn(attemptCtx, cancel)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	if !retryable || s.policy.MaxRetries == 0 {
		return unwrapPermanent(attemptFn())
	}

	var notify backoff.Notify
	if s.policy.Notify != nil {
		notify = func(err error, next time.Duration) {
			s.policy.Notify(op, key, err, next)
		}
	}
	return backoff.RetryNotify(attemptFn, s.backoff(ctx), notify)
}

func (s *retryingStore) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.policy.Timeout > 0 {
		return context.WithTimeout(ctx, s.policy.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *retryingStore) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if s.policy.InitialInterval > 0 {
		exp.InitialInterval = s.policy.InitialInterval
	}
	if s.policy.MaxInterval > 0 {
		exp.MaxInterval = s.policy.MaxInterval
	}
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, s.policy.MaxRetries), ctx)
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
