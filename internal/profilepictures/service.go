package profilepictures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"trainee-backend/internal/shared/keylock"
	"trainee-backend/internal/shared/metrics"
	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/telemetry"
	"trainee-backend/internal/shared/tempfile"
	"trainee-backend/internal/trainees"
)

// TraineeRepo is the part of the trainee repository the pipeline needs.
type TraineeRepo interface {
	GetByID(ctx context.Context, id string) (trainees.Trainee, error)
	Update(ctx context.Context, t trainees.Trainee) (trainees.Trainee, error)
}

// Result carries the public URLs of both variants.
type Result struct {
	ImageURL     string `json:"imageURL"`
	ThumbnailURL string `json:"thumbnailURL"`
}

// Service derives, stores and removes trainee profile pictures.
type Service struct {
	Repo          TraineeRepo
	Store         object.ObjectStore
	Resizer       Resizer
	Locks         *keylock.Locker
	PublicBaseURL string
	TempDir       string
	Sink          telemetry.ErrorSink

	newScope func() *tempfile.Scope
}

// Set replaces the trainee's profile picture with src. Temp files created
// along the way are removed before Set returns, whatever the outcome.
func (s *Service) Set(ctx context.Context, traineeID string, src UploadSource) (Result, error) {
	unlock, err := s.lock(ctx, traineeID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	res, err := s.set(ctx, traineeID, src)
	s.record("set", traineeID, err)
	return res, err
}

func (s *Service) set(ctx context.Context, traineeID string, src UploadSource) (Result, error) {
	trainee, err := s.Repo.GetByID(ctx, traineeID)
	if err != nil {
		return Result{}, err
	}

	scope := s.scope()
	defer s.cleanup(scope, traineeID)

	start := time.Now()
	original, err := src.Accept(ctx, scope)
	metrics.ObserveStage("profile_picture", "accept", time.Since(start))
	if err != nil {
		return Result{}, err
	}
	if err := checkNotEmpty(original); err != nil {
		return Result{}, err
	}

	large, err := s.resize(ctx, scope, original, "large-*.jpg", LargeSize)
	if err != nil {
		return Result{}, err
	}
	// The thumbnail is derived from the large variant, not the original.
	small, err := s.resize(ctx, scope, large, "small-*.jpg", SmallSize)
	if err != nil {
		return Result{}, err
	}

	// Thumbnail first: a failed thumbnail upload leaves the previous pair intact.
	start = time.Now()
	if err := s.upload(ctx, SmallKey(traineeID), small); err != nil {
		return Result{}, err
	}
	if err := s.upload(ctx, LargeKey(traineeID), large); err != nil {
		return Result{}, err
	}
	metrics.ObserveStage("profile_picture", "upload", time.Since(start))

	res := Result{
		ImageURL:     object.PublicURL(s.PublicBaseURL, LargeKey(traineeID)),
		ThumbnailURL: object.PublicURL(s.PublicBaseURL, SmallKey(traineeID)),
	}
	trainee.ImageURL = res.ImageURL
	trainee.ThumbnailURL = res.ThumbnailURL
	if _, err := s.Repo.Update(ctx, trainee); err != nil {
		return Result{}, fmt.Errorf("persist profile picture: %w", err)
	}
	return res, nil
}

// Delete removes both variants and then clears the trainee's URLs. Missing
// objects are tolerated; if either removal fails the trainee is untouched.
func (s *Service) Delete(ctx context.Context, traineeID string) error {
	unlock, err := s.lock(ctx, traineeID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.delete(ctx, traineeID)
	s.record("delete", traineeID, err)
	return err
}

func (s *Service) delete(ctx context.Context, traineeID string) error {
	trainee, err := s.Repo.GetByID(ctx, traineeID)
	if err != nil {
		return err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{LargeKey(traineeID), SmallKey(traineeID)} {
		g.Go(func() error {
			if err := s.Store.Delete(gctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}
	err = g.Wait()
	metrics.ObserveStage("profile_picture", "delete", time.Since(start))
	if err != nil {
		return err
	}

	if trainee.ImageURL == "" && trainee.ThumbnailURL == "" {
		return nil
	}
	trainee.ImageURL = ""
	trainee.ThumbnailURL = ""
	if _, err := s.Repo.Update(ctx, trainee); err != nil {
		return fmt.Errorf("clear profile picture: %w", err)
	}
	return nil
}

func (s *Service) resize(ctx context.Context, scope *tempfile.Scope, src, pattern string, size int) (string, error) {
	dst, err := scope.Path(pattern)
	if err != nil {
		return "", err
	}
	start := time.Now()
	err = s.Resizer.Resize(ctx, src, dst, size, size)
	metrics.ObserveStage("profile_picture", fmt.Sprintf("resize_%d", size), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("resize to %dpx: %w", size, err)
	}
	return dst, nil
}

func (s *Service) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &tempfile.FilesystemError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	return s.Store.Upload(ctx, key, f, object.ACLPublic)
}

func (s *Service) lock(ctx context.Context, traineeID string) (func(), error) {
	if s.Locks == nil {
		return func() {}, nil
	}
	return s.Locks.Lock(ctx, traineeID)
}

func (s *Service) scope() *tempfile.Scope {
	if s.newScope != nil {
		return s.newScope()
	}
	return tempfile.NewScope(s.TempDir)
}

// cleanup never fails the request; removal errors go to the sink.
func (s *Service) cleanup(scope *tempfile.Scope, traineeID string) {
	err := scope.Cleanup()
	if err == nil {
		return
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		metrics.IncCleanupFailure()
		fields := map[string]any{"trainee_id": traineeID}
		var fsErr *tempfile.FilesystemError
		if errors.As(e, &fsErr) {
			fields["path"] = fsErr.Path
		}
		s.sink().Capture(e, fields)
	}
}

func (s *Service) sink() telemetry.ErrorSink {
	if s.Sink == nil {
		return telemetry.LogSink{}
	}
	return s.Sink
}

func (s *Service) record(op, traineeID string, err error) {
	if err == nil {
		metrics.IncProfilePicture(op, "ok")
		telemetry.Info("profile_picture."+op, map[string]any{"trainee_id": traineeID})
		return
	}
	metrics.IncProfilePicture(op, "error")
	telemetry.Warn("profile_picture."+op+"_failed", map[string]any{
		"trainee_id": traineeID,
		"error":      err,
	})
}

func checkNotEmpty(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no file received", ErrValidation)
	}
	info, err := os.Stat(path)
	if err != nil {
		return &tempfile.FilesystemError{Op: "stat", Path: path, Err: err}
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	return nil
}
