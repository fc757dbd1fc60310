package pipeline

import (
	"context"
	"time"
)

// MediaFetcher downloads an attachment from the messaging provider.
type MediaFetcher interface {
	// FetchMedia resolves the media ID and returns the attachment bytes.
	FetchMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// TextExtractor converts document bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Completer provides an interface for the generative extraction service.
// This interface enables mocking and testing of the model round trip.
type Completer interface {
	// Complete sends a single instruction and returns the raw model text.
	Complete(ctx context.Context, instruction string) (string, error)

	// ModelName identifies the model for audit records.
	ModelName() string
}

// Sink persists one normalized transfer to the ledger.
type Sink interface {
	Append(ctx context.Context, t Transfer) error
}

// Archiver keeps a copy of an inbound attachment. Optional.
type Archiver interface {
	Archive(ctx context.Context, msg RawMessage, data []byte) error
}

// ModelOutput is one raw model response kept for auditing.
type ModelOutput struct {
	MessageID     string
	ModelName     string
	PromptVersion string
	RawResponse   string
	SourceText    string
	Candidates    int
	Accepted      int
	Err           error
	CreatedAt     time.Time
}

// OutputRecorder stores raw model responses. Optional.
type OutputRecorder interface {
	RecordModelOutput(ctx context.Context, out ModelOutput) error
}
