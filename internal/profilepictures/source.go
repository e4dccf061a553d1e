package profilepictures

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/tempfile"
)

// UploadSource spools an incoming upload into a temp file registered with
// scope and returns its path. Rejected uploads yield ErrValidation.
type UploadSource interface {
	Accept(ctx context.Context, scope *tempfile.Scope) (string, error)
}

// ReaderSource accepts an image from an arbitrary stream.
type ReaderSource struct {
	R        io.Reader
	MaxBytes int64
}

func (s ReaderSource) Accept(ctx context.Context, scope *tempfile.Scope) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.R == nil {
		return "", fmt.Errorf("%w: no file provided", ErrValidation)
	}
	mimeType, r, err := object.SniffContentType(s.R)
	if err != nil {
		return "", fmt.Errorf("%w: unreadable upload: %v", ErrValidation, err)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: expected an image, got %s", ErrValidation, mimeType)
	}

	f, err := scope.Create("upload-*")
	if err != nil {
		return "", err
	}
	if s.MaxBytes > 0 {
		r = io.LimitReader(r, s.MaxBytes+1)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return "", fmt.Errorf("spool upload: %w", copyErr)
	}
	if closeErr != nil {
		return "", &tempfile.FilesystemError{Op: "close", Path: f.Name(), Err: closeErr}
	}
	if s.MaxBytes > 0 && n > s.MaxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.MaxBytes)
	}
	return f.Name(), nil
}

// MultipartSource accepts the "file" part of a multipart form.
type MultipartSource struct {
	Header   *multipart.FileHeader
	MaxBytes int64
}

func (s MultipartSource) Accept(ctx context.Context, scope *tempfile.Scope) (string, error) {
	if s.Header == nil {
		return "", fmt.Errorf("%w: file is required", ErrValidation)
	}
	if s.Header.Size == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	f, err := s.Header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: unable to read file", ErrValidation)
	}
	defer f.Close()
	return ReaderSource{R: f, MaxBytes: s.MaxBytes}.Accept(ctx, scope)
}
