package telemetry

// ErrorSink receives errors that are recorded for follow-up but never returned
// to a caller.
type ErrorSink interface {
	Capture(err error, fields map[string]any)
}

// LogSink captures errors as error-level log lines.
type LogSink struct{}

// Capture logs err with fields under the "error.captured" message.
func (LogSink) Capture(err error, fields map[string]any) {
	if err == nil {
		return
	}
	entry := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		entry[k] = v
	}
	entry["error"] = err.Error()
	Error("error.captured", entry)
}

// SinkFunc adapts a function to ErrorSink.
type SinkFunc func(err error, fields map[string]any)

// Capture calls f.
func (f SinkFunc) Capture(err error, fields map[string]any) { f(err, fields) }
