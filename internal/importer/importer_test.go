package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/domain"
	"github.com/dvloznov/expense-tracker/internal/statement"
)

// fakeLedger is an in-memory Ledger with injectable failures.
type fakeLedger struct {
	categories   map[string]*domain.Category // keyed by userID + "/" + name
	transactions map[string][]domain.CategorizedTransaction

	nextID int

	deleteErr    error
	insertErrFor map[string]error // keyed by description
	findErr      error
	createErr    error
	createCalls  int
	deleteCalls  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		categories:   make(map[string]*domain.Category),
		transactions: make(map[string][]domain.CategorizedTransaction),
		insertErrFor: make(map[string]error),
	}
}

func (f *fakeLedger) DeleteUserTransactions(ctx context.Context, userID string) error {
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.transactions[userID] = nil
	return nil
}

func (f *fakeLedger) FindCategoryByName(ctx context.Context, userID, name string) (*domain.Category, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.categories[userID+"/"+name], nil
}

func (f *fakeLedger) CreateCategory(ctx context.Context, userID, name string, budget decimal.Decimal) (*domain.Category, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	cat := &domain.Category{
		ID:     fmt.Sprintf("cat-%d", f.nextID),
		UserID: userID,
		Name:   name,
		Budget: budget,
	}
	f.categories[userID+"/"+name] = cat
	return cat, nil
}

func (f *fakeLedger) InsertTransaction(ctx context.Context, userID string, tx domain.CategorizedTransaction) error {
	if err := f.insertErrFor[tx.Description]; err != nil {
		return err
	}
	f.transactions[userID] = append(f.transactions[userID], tx)
	return nil
}

func (f *fakeLedger) addCategory(userID, name string) *domain.Category {
	f.nextID++
	cat := &domain.Category{
		ID:     fmt.Sprintf("cat-%d", f.nextID),
		UserID: userID,
		Name:   name,
	}
	f.categories[userID+"/"+name] = cat
	return cat
}

// fakeDoc implements statement.Document over fixed pages.
type fakeDoc struct {
	pages [][]string
	err   error
}

var _ statement.Document = (*fakeDoc)(nil)

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) PageLines(page int) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.pages[page], nil
}

func statementDoc() *fakeDoc {
	return &fakeDoc{pages: [][]string{
		{
			"Payments",
			"Date Description Amount",
			"07/01/2023 PAYMENT THANK YOU $125.00",
			"Transactions",
			"Date Description Amount",
			"04/12/2023 STARBUCKS #1234 $-6.75",
			"04/15/2023 SOME ODD FEE $0.00",
			"04/20/2023 Daily Cash redemption 3% $0.45",
			"05/03/2023 UNKNOWN MERCHANT XYZ $20.00",
		},
	}}
}

func newImporter(ledger Ledger) *Importer {
	resolver := categorize.NewResolver(categorize.DefaultRules(), "Other")
	return New(ledger, resolver, decimal.NewFromInt(100), zerolog.Nop())
}

func TestImportStatement(t *testing.T) {
	ledger := newFakeLedger()
	dining := ledger.addCategory("user-1", "Dining")

	report, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", statementDoc())
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}

	if report.Attempted != 4 {
		t.Errorf("attempted = %d, want 4", report.Attempted)
	}
	if report.Succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", report.Succeeded)
	}
	if report.SkippedZero != 1 {
		t.Errorf("skipped_zero = %d, want 1", report.SkippedZero)
	}
	if len(report.Failures) != 0 {
		t.Errorf("failures = %v, want none", report.Failures)
	}

	txs := ledger.transactions["user-1"]
	if len(txs) != 3 {
		t.Fatalf("persisted %d transactions, want 3: %+v", len(txs), txs)
	}

	// Polarity law: payments negative, purchases positive, regardless of
	// the sign spelled in the source line.
	payment := txs[0]
	if payment.Description != "PAYMENT THANK YOU" || payment.Amount.StringFixed(2) != "-125.00" {
		t.Errorf("payment = %q %s, want PAYMENT THANK YOU -125.00", payment.Description, payment.Amount)
	}
	if payment.Kind != domain.KindPayment {
		t.Errorf("payment kind = %v, want %v", payment.Kind, domain.KindPayment)
	}

	purchase := txs[1]
	if purchase.Description != "STARBUCKS #1234" || purchase.Amount.StringFixed(2) != "6.75" {
		t.Errorf("purchase = %q %s, want STARBUCKS #1234 6.75", purchase.Description, purchase.Amount)
	}
	if purchase.CategoryID != dining.ID {
		t.Errorf("purchase category = %q, want %q (Dining)", purchase.CategoryID, dining.ID)
	}

	// Unmatched description lands in the lazily created fallback category.
	other := txs[2]
	fallback := ledger.categories["user-1/Other"]
	if fallback == nil {
		t.Fatal("fallback category was not created")
	}
	if other.CategoryID != fallback.ID {
		t.Errorf("unmatched category = %q, want fallback %q", other.CategoryID, fallback.ID)
	}
	if ledger.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (lazy, once)", ledger.createCalls)
	}
}

func TestImportStatementZeroAmountNeverPersisted(t *testing.T) {
	ledger := newFakeLedger()

	report, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", statementDoc())
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if report.SkippedZero != 1 {
		t.Errorf("skipped_zero = %d, want 1", report.SkippedZero)
	}
	for _, tx := range ledger.transactions["user-1"] {
		if tx.Amount.IsZero() {
			t.Errorf("zero-amount transaction persisted: %+v", tx)
		}
	}
}

func TestImportStatementClearFailureLeavesLedgerIntact(t *testing.T) {
	ledger := newFakeLedger()
	cat := ledger.addCategory("user-1", "Other")
	existing := domain.CategorizedTransaction{
		Transaction: domain.Transaction{Description: "OLD ROW"},
		CategoryID:  cat.ID,
	}
	ledger.transactions["user-1"] = []domain.CategorizedTransaction{existing}
	ledger.deleteErr = errors.New("storage fault")

	_, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", statementDoc())

	var clearErr *ClearError
	if !errors.As(err, &clearErr) {
		t.Fatalf("error = %v, want *ClearError", err)
	}
	if got := ledger.transactions["user-1"]; len(got) != 1 || got[0].Description != "OLD ROW" {
		t.Errorf("ledger changed after failed clear: %+v", got)
	}
}

func TestImportStatementExtractionFailureTouchesNothing(t *testing.T) {
	ledger := newFakeLedger()
	doc := &fakeDoc{pages: [][]string{nil}, err: errors.New("unreadable document")}

	_, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", doc)

	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("error = %v, want *ExtractionError", err)
	}
	if ledger.deleteCalls != 0 {
		t.Errorf("deleteCalls = %d, want 0 (clear must not run before extraction succeeds)", ledger.deleteCalls)
	}
}

func TestImportStatementInsertFailureContinues(t *testing.T) {
	ledger := newFakeLedger()
	ledger.insertErrFor["STARBUCKS #1234"] = errors.New("insert fault")

	report, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", statementDoc())
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", report.Succeeded)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", report.Failures)
	}
	if report.Failures[0].Line != "STARBUCKS #1234" {
		t.Errorf("failure line = %q, want STARBUCKS #1234", report.Failures[0].Line)
	}
}

// Re-running the same document replaces the ledger; it never doubles it.
func TestImportStatementIdempotentReplace(t *testing.T) {
	ledger := newFakeLedger()
	imp := newImporter(ledger)

	first, err := imp.ImportStatement(context.Background(), "user-1", statementDoc())
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	afterFirst := len(ledger.transactions["user-1"])

	second, err := imp.ImportStatement(context.Background(), "user-1", statementDoc())
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if len(ledger.transactions["user-1"]) != afterFirst {
		t.Errorf("ledger size after rerun = %d, want %d", len(ledger.transactions["user-1"]), afterFirst)
	}
	if first.Succeeded != second.Succeeded {
		t.Errorf("succeeded differs between runs: %d vs %d", first.Succeeded, second.Succeeded)
	}
}

func TestImportStatementEmptyDocument(t *testing.T) {
	ledger := newFakeLedger()
	doc := &fakeDoc{pages: [][]string{{"nothing to see here"}}}

	report, err := newImporter(ledger).ImportStatement(context.Background(), "user-1", doc)
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if report.Attempted != 0 || report.Succeeded != 0 {
		t.Errorf("report = %+v, want zero imports", report)
	}
}
