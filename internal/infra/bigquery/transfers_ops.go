package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const transfersTable = "transfers"

// InsertTransferWithClient streams a single TransferRow into <dataset>.transfers
// using the provided BigQuery client.
func InsertTransferWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, row *TransferRow) error {
	table := client.DatasetInProject(projectID, datasetID).Table(transfersTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransfer: inserting row: %w", err)
	}
	return nil
}
