package pipeline

import "errors"

var (
	// ErrUnsupportedInput marks a message kind the pipeline does not handle.
	// Callers drop the message without reporting it.
	ErrUnsupportedInput = errors.New("pipeline: unsupported input")

	// ErrExtractionUnavailable marks a failed document-text or model call.
	ErrExtractionUnavailable = errors.New("pipeline: extraction unavailable")

	// ErrMalformedModelOutput marks a model response that could not be parsed.
	ErrMalformedModelOutput = errors.New("pipeline: malformed model output")

	// ErrPersistenceFailure marks a sink that rejected a write.
	ErrPersistenceFailure = errors.New("pipeline: persistence failure")
)
