package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

type ModelOutputRow struct {
	OutputID  string `bigquery:"output_id"`  // REQUIRED
	MessageID string `bigquery:"message_id"` // REQUIRED

	ModelName     string              `bigquery:"model_name"`     // REQUIRED
	PromptVersion bigquery.NullString `bigquery:"prompt_version"` // NULLABLE

	RawResponse bigquery.NullString `bigquery:"raw_response"` // NULLABLE, model text as returned
	SourceText  bigquery.NullString `bigquery:"source_text"`  // NULLABLE

	Candidates int64 `bigquery:"candidates"` // REQUIRED
	Accepted   int64 `bigquery:"accepted"`   // REQUIRED

	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // REQUIRED
}

// NewModelOutputRow maps an audit record onto a row with a fresh ID.
func NewModelOutputRow(out pipeline.ModelOutput) *ModelOutputRow {
	row := &ModelOutputRow{
		OutputID:      uuid.New().String(),
		MessageID:     out.MessageID,
		ModelName:     out.ModelName,
		PromptVersion: optionalString(out.PromptVersion),
		RawResponse:   optionalString(out.RawResponse),
		SourceText:    optionalString(out.SourceText),
		Candidates:    int64(out.Candidates),
		Accepted:      int64(out.Accepted),
	}
	if out.Err != nil {
		row.ErrorMessage = bigquery.NullString{StringVal: out.Err.Error(), Valid: true}
	}
	created := out.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	row.CreatedTS = bigquery.NullTimestamp{Timestamp: created.UTC(), Valid: true}
	return row
}

func optionalString(s string) bigquery.NullString {
	if s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: s, Valid: true}
}
