package letters

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType  = errors.New("unknown letter type")
	ErrInvalidInput = errors.New("invalid input")
)

// TemplateFetchError wraps a failure to load a letter template.
type TemplateFetchError struct {
	Type Type
	Err  error
}

func (e *TemplateFetchError) Error() string {
	return fmt.Sprintf("fetch template %s: %v", e.Type, e.Err)
}

func (e *TemplateFetchError) Unwrap() error { return e.Err }

// TemplatePopulationError wraps a failure to fill a letter template.
type TemplatePopulationError struct {
	Type Type
	Err  error
}

func (e *TemplatePopulationError) Error() string {
	return fmt.Sprintf("populate template %s: %v", e.Type, e.Err)
}

func (e *TemplatePopulationError) Unwrap() error { return e.Err }
