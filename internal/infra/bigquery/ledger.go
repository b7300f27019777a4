package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/domain"
)

// TransactionSourceStatement marks rows imported from a bank statement.
const TransactionSourceStatement = "BANK_STATEMENT"

// LedgerStore adapts a LedgerRepository to the import orchestrator's
// persistence boundary, scoping inserted rows to one document and import
// run. Create one per import.
type LedgerStore struct {
	repo        bq.LedgerRepository
	documentID  string
	importRunID string
}

// NewLedgerStore creates a run-scoped ledger store.
func NewLedgerStore(repo bq.LedgerRepository, documentID, importRunID string) *LedgerStore {
	return &LedgerStore{
		repo:        repo,
		documentID:  documentID,
		importRunID: importRunID,
	}
}

// DeleteUserTransactions removes every transaction owned by the user.
func (s *LedgerStore) DeleteUserTransactions(ctx context.Context, userID string) error {
	return s.repo.DeleteUserTransactions(ctx, userID)
}

// FindCategoryByName returns the user's category with the given name, or nil.
func (s *LedgerStore) FindCategoryByName(ctx context.Context, userID, name string) (*domain.Category, error) {
	row, err := s.repo.FindCategoryByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return categoryFromRow(row), nil
}

// CreateCategory inserts a category for the user and returns it.
func (s *LedgerStore) CreateCategory(ctx context.Context, userID, name string, budget decimal.Decimal) (*domain.Category, error) {
	row := &bq.CategoryRow{
		CategoryID: uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Budget:     budget.Rat(),
		CreatedTS:  time.Now(),
	}
	if err := s.repo.CreateCategory(ctx, row); err != nil {
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return categoryFromRow(row), nil
}

// InsertTransaction persists one categorized transaction for the user.
func (s *LedgerStore) InsertTransaction(ctx context.Context, userID string, tx domain.CategorizedTransaction) error {
	row := &bq.TransactionRow{
		TransactionID:   uuid.NewString(),
		UserID:          userID,
		DocumentID:      s.documentID,
		ImportRunID:     s.importRunID,
		TransactionDate: civil.DateOf(tx.Date),
		Description:     tx.Description,
		Amount:          tx.Amount.Rat(),
		Kind:            string(tx.Kind),
		CategoryID:      tx.CategoryID,
		Source:          TransactionSourceStatement,
		CreatedTS:       time.Now(),
	}
	return s.repo.InsertTransactions(ctx, []*bq.TransactionRow{row})
}

func categoryFromRow(row *bq.CategoryRow) *domain.Category {
	budget := decimal.Zero
	if row.Budget != nil {
		budget = decimal.NewFromBigRat(row.Budget, 2)
	}
	return &domain.Category{
		ID:     row.CategoryID,
		UserID: row.UserID,
		Name:   row.Name,
		Budget: budget,
	}
}
