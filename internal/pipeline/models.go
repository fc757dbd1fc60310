package pipeline

import (
	"strings"
	"time"
)

// MessageKind tags the shape of an inbound message.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindDocument    MessageKind = "document"
	KindUnsupported MessageKind = "unsupported"
)

// RawMessage is an inbound chat message as handed over by the transport.
// Only the fields matching Kind are meaningful.
type RawMessage struct {
	ID   string // provider message ID, used for logs and archive names
	From string // sender phone number

	Kind MessageKind

	Body string // KindText

	MimeType string // KindDocument
	MediaID  string // KindDocument
	Filename string // KindDocument, optional

	RawKind string // KindUnsupported: the provider's type string
}

// ExtractionRequest is the input of one extraction round trip.
type ExtractionRequest struct {
	MessageID  string
	SourceText string
}

// CandidateTransfer is one transfer as reported by the model, before any
// validation. Every field is decoded with json.Decoder.UseNumber, so a value
// is nil (absent), a string, a json.Number, a bool or a nested value.
type CandidateTransfer struct {
	Amount            any `json:"amount"`
	CUIT              any `json:"cuit"`
	DNI               any `json:"dni"`
	CBU               any `json:"cbu"`
	Alias             any `json:"alias"`
	RecipientName     any `json:"recipient_name"`
	SenderName        any `json:"sender_name"`
	Date              any `json:"date"`
	TransactionNumber any `json:"transaction_number"`
	Reference         any `json:"reference"`
	Bank              any `json:"bank"`
	Branch            any `json:"branch"`
	TransferType      any `json:"transfer_type"`
}

// TransferType is the payment basis of a transfer.
type TransferType int

const (
	// Direct is a transfer without an invoice ("Barrani").
	Direct TransferType = iota
	// Invoiced is a transfer backed by an invoice ("Con Factura").
	Invoiced
)

// String returns the ledger label of the transfer type.
func (t TransferType) String() string {
	if t == Invoiced {
		return "Con Factura"
	}
	return "Barrani"
}

// MarshalText renders the ledger label, so JSON output matches the sheet.
func (t TransferType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Transfer is a normalized transfer record, ready for a Sink.
// Nil pointers mean the field was absent; they are never empty strings.
type Transfer struct {
	Amount *int64 `json:"amount,omitempty"` // smallest currency unit

	CUIT *string `json:"cuit,omitempty"` // digits only
	DNI  *string `json:"dni,omitempty"`  // digits only
	CBU  *string `json:"cbu,omitempty"`  // digits only

	Alias             *string `json:"alias,omitempty"`
	RecipientName     *string `json:"recipient_name,omitempty"`
	SenderName        *string `json:"sender_name,omitempty"`
	Date              *string `json:"date,omitempty"` // DD/MM/YYYY as supplied
	TransactionNumber *string `json:"transaction_number,omitempty"`
	Reference         *string `json:"reference,omitempty"`
	Bank              *string `json:"bank,omitempty"`
	Branch            *string `json:"branch,omitempty"`

	TransferType TransferType `json:"transfer_type"`
}

// OutcomeKind classifies an Outcome by the number of transfers it holds.
type OutcomeKind int

const (
	NoTransferFound OutcomeKind = iota
	One
	Many
)

func (k OutcomeKind) String() string {
	switch k {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "none"
	}
}

// Outcome is the result of extracting one message.
type Outcome struct {
	Transfers []Transfer

	// Err is set when extraction degraded to no transfers because of a
	// collaborator failure or unusable model output. It is informational.
	Err error
}

// Kind reports NoTransferFound, One or Many.
func (o Outcome) Kind() OutcomeKind {
	switch len(o.Transfers) {
	case 0:
		return NoTransferFound
	case 1:
		return One
	default:
		return Many
	}
}

// RecordResult is the sink result for one transfer of an Outcome.
type RecordResult struct {
	Index    int
	Transfer Transfer
	Err      error
}

// OK reports whether the record was written.
func (r RecordResult) OK() bool { return r.Err == nil }

// RouteReport summarizes what happened to one inbound message.
type RouteReport struct {
	MessageID string
	Outcome   OutcomeKind
	Results   []RecordResult

	// Dropped is set for unsupported input; nothing else is filled in.
	Dropped bool

	// ExtractionErr carries Outcome.Err when extraction degraded.
	ExtractionErr error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Written returns the number of records the sink accepted.
func (r RouteReport) Written() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of records the sink rejected.
func (r RouteReport) Failed() int {
	return len(r.Results) - r.Written()
}

// FailedIndexes lists the zero-based positions of rejected records.
func (r RouteReport) FailedIndexes() []int {
	var idx []int
	for _, res := range r.Results {
		if !res.OK() {
			idx = append(idx, res.Index)
		}
	}
	return idx
}

// stringPtr returns nil for blank strings.
func stringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
