// Package importer coordinates the replace-and-reimport of a user's
// transaction ledger from one statement document.
package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/domain"
	"github.com/dvloznov/expense-tracker/internal/statement"
)

// Ledger is the persistence boundary the orchestrator operates against.
// These are the only storage operations the import needs; schema details
// beyond them are owned by the storage layer.
type Ledger interface {
	// DeleteUserTransactions removes every transaction owned by the user.
	DeleteUserTransactions(ctx context.Context, userID string) error

	// FindCategoryByName returns the user's category with the given name,
	// or nil if none exists.
	FindCategoryByName(ctx context.Context, userID, name string) (*domain.Category, error)

	// CreateCategory creates a category for the user and returns it.
	CreateCategory(ctx context.Context, userID, name string, budget decimal.Decimal) (*domain.Category, error)

	// InsertTransaction persists one categorized transaction for the user.
	InsertTransaction(ctx context.Context, userID string, tx domain.CategorizedTransaction) error
}

// Report summarizes one import run. It is returned to the caller and never
// persisted.
type Report struct {
	Attempted   int                     `json:"attempted"`
	Succeeded   int                     `json:"succeeded"`
	SkippedZero int                     `json:"skipped_zero"`
	Failures    []statement.LineFailure `json:"failures,omitempty"`
}

// ExtractionError reports that the statement document could not be read.
// The run aborts before any destructive work, so the ledger is untouched.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("importer: extracting statement: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ClearError reports that clearing the user's existing transactions failed.
// The run aborts entirely; no replacement rows were written, so the
// previous ledger is intact.
type ClearError struct {
	Err error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("importer: clearing previous transactions: %v", e.Err)
}

func (e *ClearError) Unwrap() error { return e.Err }

// Importer replaces a user's ledger with the transactions extracted from a
// statement document. It holds no per-user lock: concurrent imports for the
// same user must be serialized by the caller (the job queue does this).
type Importer struct {
	ledger        Ledger
	resolver      *categorize.Resolver
	defaultBudget decimal.Decimal
	log           zerolog.Logger
}

// New creates an Importer. defaultBudget is assigned to the fallback
// category if the orchestrator has to create it.
func New(ledger Ledger, resolver *categorize.Resolver, defaultBudget decimal.Decimal, log zerolog.Logger) *Importer {
	return &Importer{
		ledger:        ledger,
		resolver:      resolver,
		defaultBudget: defaultBudget,
		log:           log,
	}
}

// ImportStatement runs one full replace-and-reimport for the user.
//
// The new batch is fully extracted, filtered and categorized in memory
// before the destructive clear, so a statement that cannot be read never
// leaves the user with an empty ledger. Once the clear succeeds the run
// always completes: individual insert failures are recorded in the report
// and processing continues with the next transaction.
func (imp *Importer) ImportStatement(ctx context.Context, userID string, doc statement.Document) (*Report, error) {
	// Extract. Fatal on failure; nothing has been touched yet.
	scan, err := statement.Scan(doc)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	report := &Report{
		Attempted: len(scan.Candidates),
		Failures:  scan.Failures,
	}

	// Filter zero-amount rows; they are statement artifacts, not expenses.
	survivors := make([]statement.Candidate, 0, len(scan.Candidates))
	for _, cand := range scan.Candidates {
		if cand.Amount.IsZero() {
			report.SkippedZero++
			continue
		}
		survivors = append(survivors, cand)
	}

	// Resolve every category name up front; the fallback category is
	// created lazily, once, before any transaction references it.
	categories, err := imp.prepareCategories(ctx, userID, survivors)
	if err != nil {
		return nil, err
	}

	// Clear. This is the only fail-fast persistence step: a half-cleared
	// ledger with no replacement must never happen.
	if err := imp.ledger.DeleteUserTransactions(ctx, userID); err != nil {
		return nil, &ClearError{Err: err}
	}

	// Persist. Partial failure is tolerated from here on.
	for _, cand := range survivors {
		tx := domain.NewTransaction(cand.Date, cand.Description, cand.Amount, cand.Kind())
		categorized := domain.CategorizedTransaction{
			Transaction: tx,
			CategoryID:  categories[imp.resolver.Resolve(cand.Description)],
		}

		if err := imp.ledger.InsertTransaction(ctx, userID, categorized); err != nil {
			imp.log.Warn().Err(err).Str("user_id", userID).Str("description", tx.Description).
				Msg("Failed to persist transaction, continuing")
			report.Failures = append(report.Failures, statement.LineFailure{
				Line:   tx.Description,
				Reason: err.Error(),
			})
			continue
		}
		report.Succeeded++
	}

	imp.log.Info().
		Str("user_id", userID).
		Int("attempted", report.Attempted).
		Int("succeeded", report.Succeeded).
		Int("skipped_zero", report.SkippedZero).
		Int("failed", len(report.Failures)).
		Msg("Statement import finished")

	return report, nil
}

// prepareCategories maps every resolved category name for the batch to a
// category ID. Names that resolve to a category the user does not have fall
// back to the default category, which is created if absent.
func (imp *Importer) prepareCategories(ctx context.Context, userID string, cands []statement.Candidate) (map[string]string, error) {
	fallback, err := imp.ensureFallbackCategory(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := map[string]string{imp.resolver.Fallback(): fallback.ID}

	for _, cand := range cands {
		name := imp.resolver.Resolve(cand.Description)
		if _, ok := ids[name]; ok {
			continue
		}
		cat, err := imp.ledger.FindCategoryByName(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("prepareCategories: looking up %q: %w", name, err)
		}
		if cat == nil {
			// The user has no such category; their transactions land in
			// the fallback instead.
			ids[name] = fallback.ID
			continue
		}
		ids[name] = cat.ID
	}

	return ids, nil
}

func (imp *Importer) ensureFallbackCategory(ctx context.Context, userID string) (*domain.Category, error) {
	name := imp.resolver.Fallback()

	cat, err := imp.ledger.FindCategoryByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("ensureFallbackCategory: looking up %q: %w", name, err)
	}
	if cat != nil {
		return cat, nil
	}

	cat, err = imp.ledger.CreateCategory(ctx, userID, name, imp.defaultBudget)
	if err != nil {
		return nil, fmt.Errorf("ensureFallbackCategory: creating %q: %w", name, err)
	}
	imp.log.Info().Str("user_id", userID).Str("category", name).Msg("Created fallback category")
	return cat, nil
}
