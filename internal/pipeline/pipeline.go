// Package pipeline orchestrates a full statement import: fetch the PDF
// from GCS, extract and categorize its transactions, and replace the
// user's ledger, with every run tracked in the import_runs table.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/extract"
	"github.com/dvloznov/expense-tracker/internal/gcs"
	"github.com/dvloznov/expense-tracker/internal/importer"
	infraBQ "github.com/dvloznov/expense-tracker/internal/infra/bigquery"
)

// Document import statuses recorded on the documents table.
const (
	StatusPending  = "PENDING"
	StatusImported = "IMPORTED"
	StatusFailed   = "FAILED"
)

// Pipeline wires storage, persistence and the importer together for
// one-statement-at-a-time processing. The job queue guarantees that
// runs for the same user never overlap.
type Pipeline struct {
	docs          bq.DocumentRepository
	ledger        bq.LedgerRepository
	storage       gcs.StorageService
	resolver      *categorize.Resolver
	defaultBudget decimal.Decimal
	log           zerolog.Logger
}

// New creates a Pipeline.
func New(docs bq.DocumentRepository, ledger bq.LedgerRepository, storage gcs.StorageService, resolver *categorize.Resolver, defaultBudget decimal.Decimal, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		docs:          docs,
		ledger:        ledger,
		storage:       storage,
		resolver:      resolver,
		defaultBudget: defaultBudget,
		log:           log,
	}
}

// ImportStatementFromGCS processes a single bank statement PDF stored in GCS.
// gcsURI should look like: "gs://bucket/path/to/statement.pdf".
func (p *Pipeline) ImportStatementFromGCS(ctx context.Context, userID, documentID, gcsURI string) (*importer.Report, error) {
	p.log.Info().
		Str("user_id", userID).
		Str("document_id", documentID).
		Str("statement", gcs.FilenameFromURI(gcsURI)).
		Msg("Statement import started")

	// 1. Start an import run (status=RUNNING).
	runID, err := p.docs.StartImportRun(ctx, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("ImportStatementFromGCS: starting run: %w", err)
	}

	report, err := p.runImport(ctx, userID, documentID, runID, gcsURI)
	if err != nil {
		p.docs.MarkImportRunFailed(ctx, runID, err)
		if statusErr := p.docs.UpdateDocumentStatus(ctx, documentID, StatusFailed); statusErr != nil {
			p.log.Error().Err(statusErr).Str("document_id", documentID).Msg("Failed to mark document FAILED")
		}
		return nil, err
	}

	// Only counts go to BigQuery; per-line failures stay in the report.
	if err := p.docs.MarkImportRunSucceeded(ctx, runID, report.Attempted, report.Succeeded, report.SkippedZero); err != nil {
		return report, fmt.Errorf("ImportStatementFromGCS: marking run succeeded: %w", err)
	}
	if err := p.docs.UpdateDocumentStatus(ctx, documentID, StatusImported); err != nil {
		return report, fmt.Errorf("ImportStatementFromGCS: updating document status: %w", err)
	}

	p.log.Info().
		Str("user_id", userID).
		Str("document_id", documentID).
		Str("import_run_id", runID).
		Int("succeeded", report.Succeeded).
		Msg("Statement import completed")

	return report, nil
}

// runImport executes the fallible middle of the run: fetch, extract,
// replace-and-import.
func (p *Pipeline) runImport(ctx context.Context, userID, documentID, runID, gcsURI string) (*importer.Report, error) {
	// 2. Fetch the PDF bytes from GCS.
	pdfBytes, err := p.storage.FetchObject(ctx, gcsURI)
	if err != nil {
		return nil, fmt.Errorf("fetching statement: %w", err)
	}

	// 3. Open the PDF for text extraction.
	doc, err := extract.OpenPDFBytes(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("opening statement PDF: %w", err)
	}
	defer doc.Close()

	// 4. Replace the user's transactions with the statement's contents.
	store := infraBQ.NewLedgerStore(p.ledger, documentID, runID)
	imp := importer.New(store, p.resolver, p.defaultBudget, p.log)

	report, err := imp.ImportStatement(ctx, userID, doc)
	if err != nil {
		return nil, err
	}
	return report, nil
}
