package bigquery

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

func ptr[T any](v T) *T { return &v }

func TestNewTransferRow(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.FixedZone("ART", -3*3600))
	tr := pipeline.Transfer{
		Amount:        ptr(int64(2500000)),
		CUIT:          ptr("20123456789"),
		RecipientName: ptr("Juan Perez"),
		Date:          ptr("14/03/2025"),
		TransferType:  pipeline.Invoiced,
	}

	row := NewTransferRow(tr, created)

	if _, err := uuid.Parse(row.TransferID); err != nil {
		t.Errorf("TransferID %q is not a UUID: %v", row.TransferID, err)
	}
	if !row.Amount.Valid || row.Amount.Int64 != 2500000 {
		t.Errorf("Amount = %+v, want 2500000", row.Amount)
	}
	if !row.CUIT.Valid || row.CUIT.StringVal != "20123456789" {
		t.Errorf("CUIT = %+v", row.CUIT)
	}
	if row.DNI.Valid || row.CBU.Valid || row.Bank.Valid {
		t.Error("absent fields must map to NULL")
	}
	wantDate := civil.Date{Year: 2025, Month: time.March, Day: 14}
	if !row.TransferDate.Valid || row.TransferDate.Date != wantDate {
		t.Errorf("TransferDate = %+v, want %v", row.TransferDate, wantDate)
	}
	if row.DateText.StringVal != "14/03/2025" {
		t.Errorf("DateText = %+v", row.DateText)
	}
	if row.TransferType != "Con Factura" {
		t.Errorf("TransferType = %q, want Con Factura", row.TransferType)
	}
	if row.CreatedTS.Location() != time.UTC || !row.CreatedTS.Equal(created) {
		t.Errorf("CreatedTS = %v, want %v in UTC", row.CreatedTS, created)
	}
}

func TestNewTransferRow_UnparsableDate(t *testing.T) {
	row := NewTransferRow(pipeline.Transfer{Date: ptr("ayer")}, time.Now())
	if row.TransferDate.Valid {
		t.Errorf("TransferDate = %+v, want NULL", row.TransferDate)
	}
	if !row.DateText.Valid || row.DateText.StringVal != "ayer" {
		t.Errorf("DateText = %+v, want raw text kept", row.DateText)
	}
	if row.Amount.Valid {
		t.Error("Amount should be NULL")
	}
	if row.TransferType != "Barrani" {
		t.Errorf("TransferType = %q, want Barrani", row.TransferType)
	}
}

func TestNewModelOutputRow(t *testing.T) {
	out := pipeline.ModelOutput{
		MessageID:     "wamid.1",
		ModelName:     "gemini-2.5-flash",
		PromptVersion: "v1",
		RawResponse:   "not json",
		Candidates:    0,
		Err:           errors.New("malformed"),
	}

	row := NewModelOutputRow(out)

	if row.MessageID != "wamid.1" || row.ModelName != "gemini-2.5-flash" {
		t.Errorf("row = %+v", row)
	}
	if !row.ErrorMessage.Valid || row.ErrorMessage.StringVal != "malformed" {
		t.Errorf("ErrorMessage = %+v", row.ErrorMessage)
	}
	if row.SourceText.Valid {
		t.Error("empty SourceText should be NULL")
	}
	if !row.CreatedTS.Valid || row.CreatedTS.Timestamp.IsZero() {
		t.Error("CreatedTS should default to now")
	}
}

func TestTableRef(t *testing.T) {
	if got := tableRef("p", "d", "t"); got != "`p.d.t`" {
		t.Errorf("tableRef() = %s", got)
	}
}
