package trainees

import "errors"

var (
	ErrNotFound     = errors.New("trainee not found")
	ErrConflict     = errors.New("trainee was modified concurrently")
	ErrInvalidInput = errors.New("invalid input")
)
