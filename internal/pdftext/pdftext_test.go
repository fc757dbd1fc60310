package pdftext

import (
	"context"
	"testing"
)

func TestExtractText_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("Transferencia $ 1.500.000")},
		{"png header", []byte("\x89PNG\r\n\x1a\n")},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\n")},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := e.ExtractText(context.Background(), tt.data)
			if err == nil {
				t.Fatalf("ExtractText() = %q, want error", text)
			}
		})
	}
}

func TestExtractText_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExtractor().ExtractText(ctx, []byte("%PDF-1.4")); err == nil {
		t.Fatal("ExtractText() with cancelled context: want error")
	}
}
