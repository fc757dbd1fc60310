package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// ledgerDateLayout is the DD/MM/YYYY form transfers carry their date in.
const ledgerDateLayout = "02/01/2006"

type TransferRow struct {
	TransferID string `bigquery:"transfer_id"` // REQUIRED

	Amount bigquery.NullInt64 `bigquery:"amount"` // NULLABLE, smallest currency unit

	CUIT bigquery.NullString `bigquery:"cuit"` // NULLABLE
	DNI  bigquery.NullString `bigquery:"dni"`  // NULLABLE
	CBU  bigquery.NullString `bigquery:"cbu"`  // NULLABLE

	Alias         bigquery.NullString `bigquery:"alias"`          // NULLABLE
	RecipientName bigquery.NullString `bigquery:"recipient_name"` // NULLABLE
	SenderName    bigquery.NullString `bigquery:"sender_name"`    // NULLABLE

	TransferDate bigquery.NullDate   `bigquery:"transfer_date"` // NULLABLE, parsed from DateText
	DateText     bigquery.NullString `bigquery:"date_text"`     // NULLABLE, as supplied

	TransactionNumber bigquery.NullString `bigquery:"transaction_number"` // NULLABLE
	Reference         bigquery.NullString `bigquery:"reference"`          // NULLABLE
	Bank              bigquery.NullString `bigquery:"bank"`               // NULLABLE
	Branch            bigquery.NullString `bigquery:"branch"`             // NULLABLE

	TransferType string `bigquery:"transfer_type"` // REQUIRED: "Con Factura" or "Barrani"

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// NewTransferRow maps a normalized transfer onto a row with a fresh ID.
func NewTransferRow(t pipeline.Transfer, createdAt time.Time) *TransferRow {
	row := &TransferRow{
		TransferID:        uuid.New().String(),
		CUIT:              nullString(t.CUIT),
		DNI:               nullString(t.DNI),
		CBU:               nullString(t.CBU),
		Alias:             nullString(t.Alias),
		RecipientName:     nullString(t.RecipientName),
		SenderName:        nullString(t.SenderName),
		DateText:          nullString(t.Date),
		TransactionNumber: nullString(t.TransactionNumber),
		Reference:         nullString(t.Reference),
		Bank:              nullString(t.Bank),
		Branch:            nullString(t.Branch),
		TransferType:      t.TransferType.String(),
		CreatedTS:         createdAt.UTC(),
	}
	if t.Amount != nil {
		row.Amount = bigquery.NullInt64{Int64: *t.Amount, Valid: true}
	}
	if t.Date != nil {
		if d, err := time.Parse(ledgerDateLayout, *t.Date); err == nil {
			row.TransferDate = bigquery.NullDate{Date: civil.DateOf(d), Valid: true}
		}
	}
	return row
}

func nullString(p *string) bigquery.NullString {
	if p == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *p, Valid: true}
}
