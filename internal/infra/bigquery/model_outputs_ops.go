package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const modelOutputsTable = "model_outputs"

// InsertModelOutputWithClient inserts a single ModelOutputRow into <dataset>.model_outputs
// using the provided BigQuery client. Uses DML INSERT to avoid streaming buffer issues.
func InsertModelOutputWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, row *ModelOutputRow) error {
	q := client.Query(`
		INSERT INTO ` + tableRef(projectID, datasetID, modelOutputsTable) + ` (
			output_id, message_id,
			model_name, prompt_version,
			raw_response, source_text,
			candidates, accepted,
			error_message, created_ts
		)
		VALUES (
			@output_id, @message_id,
			@model_name, @prompt_version,
			@raw_response, @source_text,
			@candidates, @accepted,
			@error_message, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "message_id", Value: row.MessageID},
		{Name: "model_name", Value: row.ModelName},
		{Name: "prompt_version", Value: row.PromptVersion},
		{Name: "raw_response", Value: row.RawResponse},
		{Name: "source_text", Value: row.SourceText},
		{Name: "candidates", Value: row.Candidates},
		{Name: "accepted", Value: row.Accepted},
		{Name: "error_message", Value: row.ErrorMessage},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertModelOutput: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertModelOutput: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertModelOutput: job error: %w", err)
	}

	return nil
}

func tableRef(projectID, datasetID, table string) string {
	return "`" + projectID + "." + datasetID + "." + table + "`"
}
