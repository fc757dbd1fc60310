package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/transfer-tracker/internal/logger"
)

// SourceAdapter turns a RawMessage into the text handed to the engine.
type SourceAdapter struct {
	media    MediaFetcher
	text     TextExtractor
	archiver Archiver
	timeout  time.Duration
}

// NewSourceAdapter creates an adapter. archiver may be nil.
func NewSourceAdapter(media MediaFetcher, text TextExtractor, archiver Archiver, timeout time.Duration) *SourceAdapter {
	if timeout <= 0 {
		timeout = DefaultMediaTimeout
	}
	return &SourceAdapter{
		media:    media,
		text:     text,
		archiver: archiver,
		timeout:  timeout,
	}
}

// Adapt returns the text of a message. Unsupported kinds fail with
// ErrUnsupportedInput before any collaborator is called; media or PDF
// failures are wrapped in ErrExtractionUnavailable.
func (a *SourceAdapter) Adapt(ctx context.Context, msg RawMessage) (string, error) {
	switch msg.Kind {
	case KindText:
		return msg.Body, nil
	case KindDocument:
		if !isPDF(msg.MimeType) {
			return "", fmt.Errorf("Adapt: document %q: %w", msg.MimeType, ErrUnsupportedInput)
		}
		return a.documentText(ctx, msg)
	default:
		kind := msg.RawKind
		if kind == "" {
			kind = string(msg.Kind)
		}
		return "", fmt.Errorf("Adapt: kind %q: %w", kind, ErrUnsupportedInput)
	}
}

func (a *SourceAdapter) documentText(ctx context.Context, msg RawMessage) (string, error) {
	if a.media == nil || a.text == nil {
		return "", fmt.Errorf("Adapt: no document collaborators configured: %w", ErrExtractionUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	data, err := a.media.FetchMedia(ctx, msg.MediaID)
	if err != nil {
		return "", fmt.Errorf("Adapt: fetch media %s: %w: %v", msg.MediaID, ErrExtractionUnavailable, err)
	}

	if a.archiver != nil {
		if err := a.archiver.Archive(ctx, msg, data); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to archive attachment")
		}
	}

	text, err := a.text.ExtractText(ctx, data)
	if err != nil {
		return "", fmt.Errorf("Adapt: extract text: %w: %v", ErrExtractionUnavailable, err)
	}
	return text, nil
}

func isPDF(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i != -1 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt == PDFMimeType
}
