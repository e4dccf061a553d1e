package profilepictures

import (
	"context"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// Resizer writes src to dst bounded to maxW x maxH, keeping the aspect ratio
// and never upscaling.
type Resizer interface {
	Resize(ctx context.Context, src, dst string, maxW, maxH int) error
}

// ImagingResizer encodes JPEG output with Lanczos resampling.
type ImagingResizer struct {
	Quality int
}

func (r ImagingResizer) Resize(ctx context.Context, src, dst string, maxW, maxH int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open resize output: %w", err)
	}
	quality := r.Quality
	if quality <= 0 {
		quality = 85
	}
	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		out.Close()
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Close()
}
