package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
)

const categoriesTable = "categories"

// FindCategoryByName returns the user's category with the given name, or
// nil if the user has no such category.
func (r *BigQueryLedgerRepository) FindCategoryByName(ctx context.Context, userID, name string) (*bq.CategoryRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			category_id,
			user_id,
			name,
			budget,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		  AND name = @name
		LIMIT 1
	`, r.datasetID, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "name", Value: name},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindCategoryByName: query read: %w", err)
	}

	var row bq.CategoryRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindCategoryByName: iter next: %w", err)
	}

	return &row, nil
}

// CreateCategory inserts a new category row.
func (r *BigQueryLedgerRepository) CreateCategory(ctx context.Context, row *bq.CategoryRow) error {
	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(categoriesTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("CreateCategory: inserting row: %w", err)
	}
	return nil
}

// ListCategories returns all categories owned by the user, ordered by name.
func (r *BigQueryLedgerRepository) ListCategories(ctx context.Context, userID string) ([]bq.CategoryRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			category_id,
			user_id,
			name,
			budget,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY name
	`, r.datasetID, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var rows []bq.CategoryRow
	for {
		var row bq.CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
