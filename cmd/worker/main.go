package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/config"
	"github.com/dvloznov/expense-tracker/internal/gcs"
	infraBQ "github.com/dvloznov/expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/expense-tracker/internal/jobs"
	"github.com/dvloznov/expense-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/expense-tracker/internal/logger"
	"github.com/dvloznov/expense-tracker/internal/pipeline"
)

func main() {
	log := logger.New("worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
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

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	storage, err := gcs.NewService(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage service")
	}
	defer storage.Close()

	imports := pipeline.New(docRepo, ledgerRepo, storage, resolver, defaultBudget, log)

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Str("user_id", importJob.UserID).
			Str("document_id", importJob.DocumentID).
			Str("gcs_uri", importJob.GCSURI).
			Msg("Processing import job")

		report, err := imports.ImportStatementFromGCS(ctx, importJob.UserID, importJob.DocumentID, importJob.GCSURI)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", importJob.JobID).
				Str("document_id", importJob.DocumentID).
				Msg("Statement import failed")
			return err
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Str("document_id", importJob.DocumentID).
			Int("attempted", report.Attempted).
			Int("succeeded", report.Succeeded).
			Int("skipped_zero", report.SkippedZero).
			Int("failures", len(report.Failures)).
			Msg("Statement import completed")

		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
