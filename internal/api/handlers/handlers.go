// Package handlers implements the HTTP endpoints of the webhook server.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/transfer-tracker/internal/api/middleware"
	"github.com/dvloznov/transfer-tracker/internal/jobs"
	"github.com/dvloznov/transfer-tracker/internal/metrics"
	"github.com/dvloznov/transfer-tracker/internal/whatsapp"
)

// maxWebhookBody bounds the notification body; Meta batches are far smaller.
const maxWebhookBody = 1 << 20

// WebhookHandler handles the WhatsApp Cloud API webhook.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	publisher   jobs.Publisher
	log         zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty appSecret
// disables signature checks.
func NewWebhookHandler(verifyToken, appSecret string, publisher jobs.Publisher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		publisher:   publisher,
		log:         log,
	}
}

// Verify handles GET /webhook, the subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		h.log.Warn().Str("mode", mode).Msg("Webhook verification failed")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	h.log.Info().Msg("Webhook verified")
	middleware.WriteText(w, http.StatusOK, challenge)
}

// Receive handles POST /webhook. It acknowledges right away and leaves the
// messages to the queue workers.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.log.Error().Int64("limit", tooLarge.Limit).Msg("Rejected oversized webhook body, its messages are not processed")
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Body too large")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read webhook body")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if h.appSecret != "" && !whatsapp.ValidSignature(h.appSecret, body, r.Header.Get(whatsapp.SignatureHeader)) {
		h.log.Warn().Msg("Rejected webhook with invalid signature")
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// Meta redelivers on non-2xx; a malformed body will not get better.
		h.log.Warn().Err(err).Msg("Ignoring malformed webhook payload")
		middleware.WriteText(w, http.StatusOK, "EVENT_RECEIVED")
		return
	}

	for _, m := range payload.Messages() {
		metrics.MessagesReceived.WithLabelValues(m.Type).Inc()

		job := &jobs.MessageJob{Message: whatsapp.ToRawMessage(m)}
		if err := h.publisher.PublishMessage(ctx, job); err != nil {
			h.log.Error().Err(err).Str("message_id", m.ID).Msg("Failed to enqueue message")
			continue
		}
		h.log.Info().
			Str("message_id", m.ID).
			Str("job_id", job.JobID).
			Str("type", m.Type).
			Msg("Message enqueued")
	}

	middleware.WriteText(w, http.StatusOK, "EVENT_RECEIVED")
}

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	middleware.WriteText(w, http.StatusOK, "transfer-tracker webhook is running")
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
