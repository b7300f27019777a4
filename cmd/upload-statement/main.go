// Command upload-statement pushes a local statement PDF into the GCS
// bucket and records a document row, leaving the import to a running
// worker or a later reparse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	bq "github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/config"
	"github.com/dvloznov/expense-tracker/internal/gcs"
	infraBQ "github.com/dvloznov/expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/expense-tracker/internal/logger"
	"github.com/dvloznov/expense-tracker/internal/pipeline"
)

func main() {
	log := logger.New("upload-statement")

	filePath := flag.String("file", "", "Path to local PDF file (required)")
	userID := flag.String("user", "", "Owner of the statement (required)")
	flag.Parse()

	if *filePath == "" || *userID == "" {
		log.Fatal().Msg("Usage: upload-statement -file /path/to/statement.pdf -user USER_ID")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	storage, err := gcs.NewService(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage service")
	}
	defer storage.Close()

	docRepo, err := infraBQ.NewBigQueryDocumentRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open file")
	}
	defer f.Close()

	objectName := gcs.StatementObjectName(*userID, filepath.Base(*filePath))

	log.Info().
		Str("bucket", cfg.GCSBucket).
		Str("object", objectName).
		Str("file", *filePath).
		Msg("Uploading statement to GCS")

	gcsURI, err := storage.UploadStream(ctx, objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	docRow := &bq.DocumentRow{
		DocumentID:       uuid.NewString(),
		UserID:           *userID,
		GCSURI:           gcsURI,
		OriginalFilename: filepath.Base(*filePath),
		FileMimeType:     "application/pdf",
		UploadTS:         time.Now(),
		ImportStatus:     pipeline.StatusPending,
	}
	if err := docRepo.InsertDocument(ctx, docRow); err != nil {
		log.Fatal().Err(err).Msg("Failed to record document")
	}

	fmt.Printf("Uploaded %s to %s (document %s)\n", *filePath, gcsURI, docRow.DocumentID)
}
