// Package bigquery implements the storage repositories on Google BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
)

// Re-export the shared interfaces so callers can depend on this package alone.
type LedgerRepository = bq.LedgerRepository
type DocumentRepository = bq.DocumentRepository

// BigQueryLedgerRepository implements LedgerRepository against BigQuery.
// It holds a shared client to avoid creating a new connection per operation.
type BigQueryLedgerRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryLedgerRepository creates a ledger repository with a shared
// BigQuery client.
func NewBigQueryLedgerRepository(ctx context.Context, projectID, datasetID string) (*BigQueryLedgerRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: creating client: %w", err)
	}
	return &BigQueryLedgerRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryLedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// BigQueryDocumentRepository implements DocumentRepository against BigQuery.
type BigQueryDocumentRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryDocumentRepository creates a document repository with a shared
// BigQuery client.
func NewBigQueryDocumentRepository(ctx context.Context, projectID, datasetID string) (*BigQueryDocumentRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryDocumentRepository: creating client: %w", err)
	}
	return &BigQueryDocumentRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryDocumentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// runDML runs a parameterized DML statement and waits for completion.
func runDML(ctx context.Context, client *bigquery.Client, query string, params []bigquery.QueryParameter) error {
	q := client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
