package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const importRunsTable = "import_runs"

// StartImportRun inserts an import run with status=RUNNING and returns its ID.
func (r *BigQueryDocumentRepository) StartImportRun(ctx context.Context, documentID, userID string) (string, error) {
	importRunID := uuid.NewString()

	query := fmt.Sprintf(`
		INSERT %s.%s (
			import_run_id,
			document_id,
			user_id,
			started_ts,
			status
		)
		VALUES (
			@import_run_id,
			@document_id,
			@user_id,
			@started_ts,
			@status
		)
	`, r.datasetID, importRunsTable)

	err := runDML(ctx, r.client, query, []bigquery.QueryParameter{
		{Name: "import_run_id", Value: importRunID},
		{Name: "document_id", Value: documentID},
		{Name: "user_id", Value: userID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: "RUNNING"},
	})
	if err != nil {
		return "", fmt.Errorf("StartImportRun: %w", err)
	}

	return importRunID, nil
}

// MarkImportRunFailed sets status=FAILED with the error message. Failures
// here are logged, not returned: the caller is already on an error path.
func (r *BigQueryDocumentRepository) MarkImportRunFailed(ctx context.Context, importRunID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	query := fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE import_run_id = @import_run_id
	`, r.datasetID, importRunsTable)

	err := runDML(ctx, r.client, query, []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "import_run_id", Value: importRunID},
	})
	if err != nil {
		log.Error().Err(err).Str("import_run_id", importRunID).Msg("MarkImportRunFailed: update failed")
	}
}

// MarkImportRunSucceeded sets status=SUCCESS with the report counts.
func (r *BigQueryDocumentRepository) MarkImportRunSucceeded(ctx context.Context, importRunID string, attempted, succeeded, skippedZero int) error {
	query := fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    attempted = @attempted,
		    succeeded = @succeeded,
		    skipped_zero = @skipped_zero
		WHERE import_run_id = @import_run_id
	`, r.datasetID, importRunsTable)

	err := runDML(ctx, r.client, query, []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "attempted", Value: int64(attempted)},
		{Name: "succeeded", Value: int64(succeeded)},
		{Name: "skipped_zero", Value: int64(skippedZero)},
		{Name: "import_run_id", Value: importRunID},
	})
	if err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: %w", err)
	}

	return nil
}
