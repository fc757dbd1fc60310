// Package sheets appends transfers to a Google Sheets ledger.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// Header is the column layout written by Sink, A to N.
var Header = []interface{}{
	"Processed At", "Date", "Amount", "CUIT", "DNI", "Recipient", "Sender",
	"Transaction Number", "CBU", "Alias", "Bank", "Branch", "Reference", "Type",
}

// Sink implements pipeline.Sink with the Sheets values.append call.
type Sink struct {
	service       *sheets.Service
	spreadsheetID string
	rng           string
	now           func() time.Time
}

// NewSink creates a sink using service account credentials (JSON). Extra
// client options such as option.WithEndpoint are appended last.
func NewSink(ctx context.Context, credentialsJSON, spreadsheetID, rng string, opts ...option.ClientOption) (*Sink, error) {
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsJSON != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("NewSink: create sheets service: %w", err)
	}

	return &Sink{
		service:       service,
		spreadsheetID: spreadsheetID,
		rng:           rng,
		now:           time.Now,
	}, nil
}

// Append writes one row. Values are USER_ENTERED so the sheet parses
// numbers and dates the same way as typed input.
func (s *Sink) Append(ctx context.Context, t pipeline.Transfer) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{Row(t, s.now())},
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("Append: sheets values.append: %w", err)
	}
	return nil
}

// Row renders a transfer in Header order. Absent fields are empty cells.
// Every message-supplied cell is forced to text, so USER_ENTERED keeps
// leading zeros, leaves DD/MM/YYYY dates to no locale and evaluates no
// formula.
func Row(t pipeline.Transfer, processedAt time.Time) []interface{} {
	amount := ""
	if t.Amount != nil {
		amount = strconv.FormatInt(*t.Amount, 10)
	}
	return []interface{}{
		processedAt.UTC().Format(time.RFC3339),
		textCell(t.Date),
		amount,
		textCell(t.CUIT),
		textCell(t.DNI),
		textCell(t.RecipientName),
		textCell(t.SenderName),
		textCell(t.TransactionNumber),
		textCell(t.CBU),
		textCell(t.Alias),
		textCell(t.Bank),
		textCell(t.Branch),
		textCell(t.Reference),
		t.TransferType.String(),
	}
}

func textCell(p *string) string {
	if p == nil {
		return ""
	}
	return "'" + *p
}
