package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
)

const (
	transactionsTable = "transactions"
	dateFormat        = "2006-01-02"
)

// DeleteUserTransactions removes every transaction owned by the user. This
// is the fail-fast clear step of a replace-and-reimport; callers abort the
// import if it errors.
func (r *BigQueryLedgerRepository) DeleteUserTransactions(ctx context.Context, userID string) error {
	query := fmt.Sprintf("DELETE FROM `%s.%s.%s` WHERE user_id = @user_id",
		r.projectID, r.datasetID, transactionsTable)

	err := runDML(ctx, r.client, query, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
	if err != nil {
		return fmt.Errorf("DeleteUserTransactions: %w", err)
	}
	return nil
}

// InsertTransactions inserts a batch of TransactionRow via the streaming
// inserter.
func (r *BigQueryLedgerRepository) InsertTransactions(ctx context.Context, rows []*bq.TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryTransactionsByDateRange returns the user's transactions within the
// range, ordered by date then insertion time.
func (r *BigQueryLedgerRepository) QueryTransactionsByDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]*bq.TransactionRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			document_id,
			import_run_id,
			transaction_date,
			description,
			amount,
			kind,
			category_id,
			source,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*bq.TransactionRow
	for {
		var row bq.TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
