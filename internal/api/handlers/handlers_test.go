package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/transfer-tracker/internal/jobs"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
	"github.com/dvloznov/transfer-tracker/internal/whatsapp"
)

// MockPublisher is a mock implementation of jobs.Publisher for testing.
type MockPublisher struct {
	PublishMessageFunc func(ctx context.Context, job *jobs.MessageJob) error
	Published          []*jobs.MessageJob
}

func (m *MockPublisher) PublishMessage(ctx context.Context, job *jobs.MessageJob) error {
	if m.PublishMessageFunc != nil {
		if err := m.PublishMessageFunc(ctx, job); err != nil {
			return err
		}
	}
	m.Published = append(m.Published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

const twoMessages = `{
  "object": "whatsapp_business_account",
  "entry": [
    {"id": "1", "changes": [{"field": "messages", "value": {"messages": [
      {"from": "54911", "id": "wamid.1", "type": "text", "text": {"body": "Transferí 1M a Juan"}}
    ]}}]},
    {"id": "2", "changes": [{"field": "messages", "value": {"messages": [
      {"from": "54911", "id": "wamid.2", "type": "document",
       "document": {"id": "MEDIA1", "mime_type": "application/pdf", "filename": "c.pdf"}}
    ]}}]}
  ]
}`

func TestWebhookHandler_Verify(t *testing.T) {
	h := NewWebhookHandler("secret-token", "", &MockPublisher{}, zerolog.Nop())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=12345", http.StatusForbidden, ""},
		{"missing params", "", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.Verify(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestWebhookHandler_VerifyWithoutConfiguredToken(t *testing.T) {
	h := NewWebhookHandler("", "", &MockPublisher{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=1", nil)
	rec := httptest.NewRecorder()

	h.Verify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 when no token is configured", rec.Code)
	}
}

func TestWebhookHandler_Receive(t *testing.T) {
	pub := &MockPublisher{}
	h := NewWebhookHandler("t", "", pub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(twoMessages))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(pub.Published) != 2 {
		t.Fatalf("published %d jobs, want 2", len(pub.Published))
	}
	if got := pub.Published[0].Message; got.ID != "wamid.1" || got.Kind != pipeline.KindText {
		t.Errorf("first job message = %+v", got)
	}
	if got := pub.Published[1].Message; got.MediaID != "MEDIA1" || got.Kind != pipeline.KindDocument {
		t.Errorf("second job message = %+v", got)
	}
}

func TestWebhookHandler_ReceiveSignature(t *testing.T) {
	pub := &MockPublisher{}
	h := NewWebhookHandler("t", "app-secret", pub, zerolog.Nop())

	bad := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(twoMessages))
	bad.Header.Set(whatsapp.SignatureHeader, whatsapp.Sign("other", []byte(twoMessages)))
	rec := httptest.NewRecorder()
	h.Receive(rec, bad)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d, want 401", rec.Code)
	}
	if len(pub.Published) != 0 {
		t.Errorf("published %d jobs for a rejected request", len(pub.Published))
	}

	good := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(twoMessages))
	good.Header.Set(whatsapp.SignatureHeader, whatsapp.Sign("app-secret", []byte(twoMessages)))
	rec = httptest.NewRecorder()
	h.Receive(rec, good)
	if rec.Code != http.StatusOK || len(pub.Published) != 2 {
		t.Errorf("good signature: status = %d, published = %d", rec.Code, len(pub.Published))
	}
}

func TestWebhookHandler_ReceiveAcknowledgesAnyway(t *testing.T) {
	pub := &MockPublisher{
		PublishMessageFunc: func(ctx context.Context, job *jobs.MessageJob) error {
			return jobs.ErrQueueClosed
		},
	}
	h := NewWebhookHandler("t", "", pub, zerolog.Nop())

	for _, body := range []string{twoMessages, `{not json`, `{"object":"page","entry":[]}`} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("body %.20q: status = %d, want 200", body, rec.Code)
		}
	}
	if len(pub.Published) != 0 {
		t.Errorf("published %d jobs, want 0", len(pub.Published))
	}
}

func TestWebhookHandler_ReceiveOversizedBody(t *testing.T) {
	pub := &MockPublisher{}
	h := NewWebhookHandler("t", "", pub, zerolog.Nop())

	// Valid JSON, padded past the limit with leading whitespace.
	body := strings.Repeat(" ", maxWebhookBody) + twoMessages
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if len(pub.Published) != 0 {
		t.Errorf("published %d jobs from a truncated body", len(pub.Published))
	}
}

func TestHealthAndRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Health = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Errorf("Root = %d %q", rec.Code, rec.Body.String())
	}
}

