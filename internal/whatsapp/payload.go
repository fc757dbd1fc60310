// Package whatsapp models the WhatsApp Cloud API webhook and media endpoints.
package whatsapp

import (
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// ObjectBusinessAccount is the only webhook object type the service handles.
const ObjectBusinessAccount = "whatsapp_business_account"

// WebhookPayload is the body of a webhook POST.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is one inbound message. Only the object matching Type is set.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *Text     `json:"text,omitempty"`
	Document  *Document `json:"document,omitempty"`
	Image     *Media    `json:"image,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Document struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
}

// Messages returns every message of every change of every entry, in
// payload order. Payloads for other objects yield nothing.
func (p *WebhookPayload) Messages() []Message {
	if p.Object != ObjectBusinessAccount {
		return nil
	}
	var out []Message
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			out = append(out, c.Value.Messages...)
		}
	}
	return out
}

// ToRawMessage converts a provider message into the pipeline's input.
// Text without a body and documents without a media ID are unsupported.
func ToRawMessage(m Message) pipeline.RawMessage {
	raw := pipeline.RawMessage{
		ID:      m.ID,
		From:    m.From,
		RawKind: m.Type,
	}

	switch {
	case m.Type == "text" && m.Text != nil:
		raw.Kind = pipeline.KindText
		raw.Body = m.Text.Body
	case m.Type == "document" && m.Document != nil && m.Document.ID != "":
		raw.Kind = pipeline.KindDocument
		raw.MediaID = m.Document.ID
		raw.MimeType = m.Document.MimeType
		raw.Filename = m.Document.Filename
	default:
		raw.Kind = pipeline.KindUnsupported
	}
	return raw
}
