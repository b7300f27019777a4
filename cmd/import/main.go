// Command import runs a single statement import for a local PDF,
// bypassing GCS and the job queue. Useful for backfills and debugging
// parser behavior against a real statement.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/config"
	"github.com/dvloznov/expense-tracker/internal/extract"
	"github.com/dvloznov/expense-tracker/internal/importer"
	infraBQ "github.com/dvloznov/expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/expense-tracker/internal/logger"
	"github.com/dvloznov/expense-tracker/internal/pipeline"
)

func main() {
	log := logger.New("import")

	filePath := flag.String("file", "", "Path to the statement PDF (required)")
	userID := flag.String("user", "", "User whose transactions are replaced (required)")
	flag.Parse()

	if *filePath == "" || *userID == "" {
		log.Fatal().Msg("Usage: import -file /path/to/statement.pdf -user USER_ID")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	rules, err := cfg.Rules()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load categorization rules")
	}
	resolver := categorize.NewResolver(rules, cfg.FallbackCategory)

	defaultBudget, err := cfg.DefaultBudgetAmount()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default category budget")
	}

	// Create context with timeout so the CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	doc, err := extract.OpenPDF(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open statement PDF")
	}
	defer doc.Close()

	docRepo, err := infraBQ.NewBigQueryDocumentRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	ledgerRepo, err := infraBQ.NewBigQueryLedgerRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	defer ledgerRepo.Close()

	// Record the local file as a document so the run is traceable.
	docRow := &bq.DocumentRow{
		DocumentID:       uuid.NewString(),
		UserID:           *userID,
		GCSURI:           "file://" + *filePath,
		OriginalFilename: filepath.Base(*filePath),
		FileMimeType:     "application/pdf",
		UploadTS:         time.Now(),
		ImportStatus:     pipeline.StatusPending,
	}
	if err := docRepo.InsertDocument(ctx, docRow); err != nil {
		log.Fatal().Err(err).Msg("Failed to record document")
	}

	runID, err := docRepo.StartImportRun(ctx, docRow.DocumentID, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start import run")
	}

	store := infraBQ.NewLedgerStore(ledgerRepo, docRow.DocumentID, runID)
	imp := importer.New(store, resolver, defaultBudget, log)

	report, err := imp.ImportStatement(ctx, *userID, doc)
	if err != nil {
		docRepo.MarkImportRunFailed(ctx, runID, err)
		if statusErr := docRepo.UpdateDocumentStatus(ctx, docRow.DocumentID, pipeline.StatusFailed); statusErr != nil {
			log.Error().Err(statusErr).Msg("Failed to mark document FAILED")
		}
		log.Fatal().Err(err).Msg("Import failed")
	}

	if err := docRepo.MarkImportRunSucceeded(ctx, runID, report.Attempted, report.Succeeded, report.SkippedZero); err != nil {
		log.Fatal().Err(err).Msg("Failed to mark import run succeeded")
	}
	if err := docRepo.UpdateDocumentStatus(ctx, docRow.DocumentID, pipeline.StatusImported); err != nil {
		log.Fatal().Err(err).Msg("Failed to update document status")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to print report")
	}
}
