// Package bigquery holds the row types and repository interfaces shared by
// the storage layer and its consumers.
package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// LedgerRepository provides the transaction and category operations the
// import pipeline needs. Nothing in the pipeline touches the schema beyond
// these.
type LedgerRepository interface {
	// DeleteUserTransactions removes every transaction owned by the user.
	DeleteUserTransactions(ctx context.Context, userID string) error

	// InsertTransactions inserts a batch of TransactionRow.
	InsertTransactions(ctx context.Context, rows []*TransactionRow) error

	// FindCategoryByName returns the user's category with the given name, or nil.
	FindCategoryByName(ctx context.Context, userID, name string) (*CategoryRow, error)

	// CreateCategory inserts a new category row.
	CreateCategory(ctx context.Context, row *CategoryRow) error

	// ListCategories returns all categories owned by the user.
	ListCategories(ctx context.Context, userID string) ([]CategoryRow, error)

	// QueryTransactionsByDateRange returns the user's transactions within the range.
	QueryTransactionsByDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]*TransactionRow, error)
}

// DocumentRepository provides statement-document bookkeeping: uploaded
// files and the import runs executed against them.
type DocumentRepository interface {
	// InsertDocument records an uploaded statement file.
	InsertDocument(ctx context.Context, row *DocumentRow) error

	// ListUserDocuments returns all documents uploaded by the user.
	ListUserDocuments(ctx context.Context, userID string) ([]*DocumentRow, error)

	// UpdateDocumentStatus sets the document's import status.
	UpdateDocumentStatus(ctx context.Context, documentID, status string) error

	// StartImportRun inserts a new import run with status=RUNNING and returns its ID.
	StartImportRun(ctx context.Context, documentID, userID string) (string, error)

	// MarkImportRunFailed sets status=FAILED, finished_ts and error_message.
	MarkImportRunFailed(ctx context.Context, importRunID string, runErr error)

	// MarkImportRunSucceeded sets status=SUCCESS, finished_ts and the report counts.
	MarkImportRunSucceeded(ctx context.Context, importRunID string, attempted, succeeded, skippedZero int) error
}

// TransactionRow represents a transaction record in BigQuery.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id" json:"transaction_id"`

	UserID      string `bigquery:"user_id" json:"user_id"`
	DocumentID  string `bigquery:"document_id" json:"document_id"`
	ImportRunID string `bigquery:"import_run_id" json:"import_run_id"`

	TransactionDate civil.Date `bigquery:"transaction_date" json:"transaction_date"`

	Description string   `bigquery:"description" json:"description"`
	Amount      *big.Rat `bigquery:"amount" json:"amount"`
	Kind        string   `bigquery:"kind" json:"kind"`

	CategoryID string `bigquery:"category_id" json:"category_id"`

	Source string `bigquery:"source" json:"source"`

	CreatedTS time.Time `bigquery:"created_ts" json:"created_ts"`
}

// MarshalJSON renders Amount as a fixed two-decimal string instead of the
// big.Rat default.
func (t TransactionRow) MarshalJSON() ([]byte, error) {
	type Alias TransactionRow
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		*Alias
	}{
		Amount: func() string {
			if t.Amount == nil {
				return "0"
			}
			f, _ := t.Amount.Float64()
			return fmt.Sprintf("%.2f", f)
		}(),
		Alias: (*Alias)(&t),
	})
}

// CategoryRow represents a user-owned spending category.
type CategoryRow struct {
	CategoryID string `bigquery:"category_id" json:"category_id"`
	UserID     string `bigquery:"user_id" json:"user_id"`
	Name       string `bigquery:"name" json:"name"`

	Budget *big.Rat `bigquery:"budget" json:"budget,omitempty"`

	CreatedTS time.Time `bigquery:"created_ts" json:"created_ts"`
}

// DocumentRow represents an uploaded statement file.
type DocumentRow struct {
	DocumentID string `bigquery:"document_id" json:"document_id"`
	UserID     string `bigquery:"user_id" json:"user_id"`
	GCSURI     string `bigquery:"gcs_uri" json:"gcs_uri"`

	OriginalFilename string `bigquery:"original_filename" json:"original_filename"`
	FileMimeType     string `bigquery:"file_mime_type" json:"file_mime_type"`

	UploadTS     time.Time `bigquery:"upload_ts" json:"upload_ts"`
	ImportStatus string    `bigquery:"import_status" json:"import_status"`
}

// ImportRunRow represents one replace-and-reimport run for a document.
type ImportRunRow struct {
	ImportRunID string `bigquery:"import_run_id" json:"import_run_id"`
	DocumentID  string `bigquery:"document_id" json:"document_id"`
	UserID      string `bigquery:"user_id" json:"user_id"`

	StartedTS  time.Time              `bigquery:"started_ts" json:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts" json:"finished_ts,omitempty"`

	Status       string `bigquery:"status" json:"status"`
	ErrorMessage string `bigquery:"error_message" json:"error_message,omitempty"`

	Attempted   bigquery.NullInt64 `bigquery:"attempted" json:"attempted,omitempty"`
	Succeeded   bigquery.NullInt64 `bigquery:"succeeded" json:"succeeded,omitempty"`
	SkippedZero bigquery.NullInt64 `bigquery:"skipped_zero" json:"skipped_zero,omitempty"`
}
