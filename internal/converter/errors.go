package converter

import "fmt"

// ConversionError reports a failed conversion. StatusCode is zero when the
// service was never reached.
type ConversionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ConversionError) Error() string {
	msg := "document conversion failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }
