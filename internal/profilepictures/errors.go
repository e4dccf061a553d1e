package profilepictures

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid profile picture")
	// ErrInvalidImage is a validation error for payloads that do not decode.
	ErrInvalidImage = fmt.Errorf("%w: unsupported or corrupt image", ErrValidation)
)
