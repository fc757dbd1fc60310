package pipeline

import "time"

// Default values for message processing.
// All of them can be overridden through internal/config.
const (
	// DefaultModelName is the default Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// PDFMimeType is the only document MIME type the source adapter converts.
	PDFMimeType = "application/pdf"

	// DefaultMediaTimeout bounds media download plus PDF text extraction.
	DefaultMediaTimeout = 30 * time.Second

	// DefaultModelTimeout bounds a single completer round trip.
	DefaultModelTimeout = 60 * time.Second

	// DefaultSinkTimeout bounds a single sink append.
	DefaultSinkTimeout = 15 * time.Second
)
