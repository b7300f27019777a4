package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
)

const documentsTable = "documents"

// InsertDocument records an uploaded statement file.
func (r *BigQueryDocumentRepository) InsertDocument(ctx context.Context, row *bq.DocumentRow) error {
	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(documentsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}

// ListUserDocuments returns all documents uploaded by the user, newest first.
func (r *BigQueryDocumentRepository) ListUserDocuments(ctx context.Context, userID string) ([]*bq.DocumentRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			document_id,
			user_id,
			gcs_uri,
			original_filename,
			file_mime_type,
			upload_ts,
			import_status
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY upload_ts DESC
	`, r.datasetID, documentsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUserDocuments: query read: %w", err)
	}

	var rows []*bq.DocumentRow
	for {
		var row bq.DocumentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserDocuments: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// UpdateDocumentStatus sets the document's import status.
func (r *BigQueryDocumentRepository) UpdateDocumentStatus(ctx context.Context, documentID, status string) error {
	query := fmt.Sprintf(`
		UPDATE %s.%s
		SET import_status = @status
		WHERE document_id = @document_id
	`, r.datasetID, documentsTable)
	params := []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "document_id", Value: documentID},
	}

	if err := runDML(ctx, r.client, query, params); err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	return nil
}
