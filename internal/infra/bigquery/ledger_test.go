package bigquery

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/domain"
)

// mockLedgerRepository implements bq.LedgerRepository with overridable funcs.
type mockLedgerRepository struct {
	DeleteUserTransactionsFunc func(ctx context.Context, userID string) error
	InsertTransactionsFunc     func(ctx context.Context, rows []*bq.TransactionRow) error
	FindCategoryByNameFunc     func(ctx context.Context, userID, name string) (*bq.CategoryRow, error)
	CreateCategoryFunc         func(ctx context.Context, row *bq.CategoryRow) error
}

func (m *mockLedgerRepository) DeleteUserTransactions(ctx context.Context, userID string) error {
	if m.DeleteUserTransactionsFunc != nil {
		return m.DeleteUserTransactionsFunc(ctx, userID)
	}
	return nil
}

func (m *mockLedgerRepository) InsertTransactions(ctx context.Context, rows []*bq.TransactionRow) error {
	if m.InsertTransactionsFunc != nil {
		return m.InsertTransactionsFunc(ctx, rows)
	}
	return nil
}

func (m *mockLedgerRepository) FindCategoryByName(ctx context.Context, userID, name string) (*bq.CategoryRow, error) {
	if m.FindCategoryByNameFunc != nil {
		return m.FindCategoryByNameFunc(ctx, userID, name)
	}
	return nil, nil
}

func (m *mockLedgerRepository) CreateCategory(ctx context.Context, row *bq.CategoryRow) error {
	if m.CreateCategoryFunc != nil {
		return m.CreateCategoryFunc(ctx, row)
	}
	return nil
}

func (m *mockLedgerRepository) ListCategories(ctx context.Context, userID string) ([]bq.CategoryRow, error) {
	return nil, nil
}

func (m *mockLedgerRepository) QueryTransactionsByDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]*bq.TransactionRow, error) {
	return nil, nil
}

func TestLedgerStoreInsertTransaction(t *testing.T) {
	var inserted []*bq.TransactionRow
	repo := &mockLedgerRepository{
		InsertTransactionsFunc: func(ctx context.Context, rows []*bq.TransactionRow) error {
			inserted = append(inserted, rows...)
			return nil
		},
	}

	store := NewLedgerStore(repo, "doc-1", "run-1")

	tx := domain.CategorizedTransaction{
		Transaction: domain.NewTransaction(
			time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
			"PAYMENT THANK YOU",
			decimal.RequireFromString("125.00"),
			domain.KindPayment,
		),
		CategoryID: "cat-1",
	}

	if err := store.InsertTransaction(context.Background(), "user-1", tx); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	if len(inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(inserted))
	}
	row := inserted[0]

	if row.UserID != "user-1" || row.DocumentID != "doc-1" || row.ImportRunID != "run-1" {
		t.Errorf("row scoping = %s/%s/%s, want user-1/doc-1/run-1", row.UserID, row.DocumentID, row.ImportRunID)
	}
	if row.TransactionID == "" {
		t.Error("row has no transaction ID")
	}
	if got := row.TransactionDate.String(); got != "2023-07-01" {
		t.Errorf("transaction date = %s, want 2023-07-01", got)
	}
	if row.Kind != string(domain.KindPayment) {
		t.Errorf("kind = %q, want %q", row.Kind, domain.KindPayment)
	}
	if row.Source != TransactionSourceStatement {
		t.Errorf("source = %q, want %q", row.Source, TransactionSourceStatement)
	}

	// Payments carry a negative amount into storage.
	if f, _ := row.Amount.Float64(); f != -125.0 {
		t.Errorf("amount = %v, want -125.00", f)
	}
}

func TestLedgerStoreFindCategoryByName(t *testing.T) {
	repo := &mockLedgerRepository{
		FindCategoryByNameFunc: func(ctx context.Context, userID, name string) (*bq.CategoryRow, error) {
			if name != "Dining" {
				return nil, nil
			}
			return &bq.CategoryRow{CategoryID: "cat-9", UserID: userID, Name: name}, nil
		},
	}
	store := NewLedgerStore(repo, "doc-1", "run-1")

	cat, err := store.FindCategoryByName(context.Background(), "user-1", "Dining")
	if err != nil {
		t.Fatalf("FindCategoryByName failed: %v", err)
	}
	if cat == nil || cat.ID != "cat-9" {
		t.Errorf("category = %+v, want ID cat-9", cat)
	}

	missing, err := store.FindCategoryByName(context.Background(), "user-1", "Nope")
	if err != nil {
		t.Fatalf("FindCategoryByName failed: %v", err)
	}
	if missing != nil {
		t.Errorf("missing category = %+v, want nil", missing)
	}
}

func TestLedgerStoreCreateCategory(t *testing.T) {
	var created *bq.CategoryRow
	repo := &mockLedgerRepository{
		CreateCategoryFunc: func(ctx context.Context, row *bq.CategoryRow) error {
			created = row
			return nil
		},
	}
	store := NewLedgerStore(repo, "doc-1", "run-1")

	cat, err := store.CreateCategory(context.Background(), "user-1", "Other", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if created == nil {
		t.Fatal("no row reached the repository")
	}
	if cat.ID != created.CategoryID {
		t.Errorf("returned ID %q does not match row ID %q", cat.ID, created.CategoryID)
	}
	if cat.Name != "Other" || cat.UserID != "user-1" {
		t.Errorf("category = %+v, want Other/user-1", cat)
	}
	if !cat.Budget.Equal(decimal.NewFromInt(100)) {
		t.Errorf("budget = %s, want 100", cat.Budget)
	}
}
