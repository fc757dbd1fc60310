// Package bigquery stores transfers and model audit records in BigQuery.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// Repository holds a shared BigQuery client for one dataset. It implements
// pipeline.Sink and pipeline.OutputRecorder.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewRepository creates a new Repository with its own BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Append writes one transfer to the transfers table.
func (r *Repository) Append(ctx context.Context, t pipeline.Transfer) error {
	return InsertTransferWithClient(ctx, r.client, r.projectID, r.datasetID, NewTransferRow(t, r.now()))
}

// RecordModelOutput writes one raw model response to the model_outputs table.
func (r *Repository) RecordModelOutput(ctx context.Context, out pipeline.ModelOutput) error {
	return InsertModelOutputWithClient(ctx, r.client, r.projectID, r.datasetID, NewModelOutputRow(out))
}
