package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-tracker/internal/api/middleware"
	"github.com/dvloznov/expense-tracker/internal/bigquery"
	"github.com/dvloznov/expense-tracker/internal/categorize"
	"github.com/dvloznov/expense-tracker/internal/gcs"
	"github.com/dvloznov/expense-tracker/internal/jobs"
	"github.com/dvloznov/expense-tracker/internal/receipt"
)

// maxStatementSize caps uploaded statement PDFs at 32 MiB.
const maxStatementSize = 32 << 20

// StatementsHandler handles statement upload and listing.
type StatementsHandler struct {
	repo      bigquery.DocumentRepository
	storage   gcs.StorageService
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(repo bigquery.DocumentRepository, storage gcs.StorageService, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		log:       log,
	}
}

// UploadStatement handles POST /api/statements
// The request body is the statement PDF; the file is stored in GCS, a
// document row is recorded, and an import job is enqueued. Importing
// replaces the user's existing transactions once the job runs.
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "statement.pdf"
	}
	filename = filepath.Base(filename)

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	if !strings.HasPrefix(contentType, "application/pdf") {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "Only PDF statements are supported")
		return
	}

	objectName := gcs.StatementObjectName(userID, filename)
	body := http.MaxBytesReader(w, r.Body, maxStatementSize)

	gcsURI, err := h.storage.UploadStream(ctx, objectName, body)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload statement")
		return
	}

	doc := &bigquery.DocumentRow{
		DocumentID:       uuid.New().String(),
		UserID:           userID,
		OriginalFilename: filename,
		GCSURI:           gcsURI,
		FileMimeType:     contentType,
		UploadTS:         time.Now(),
		ImportStatus:     "PENDING",
	}
	if err := h.repo.InsertDocument(ctx, doc); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to insert document metadata")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save document metadata")
		return
	}

	job := &jobs.ImportStatementJob{
		UserID:     userID,
		DocumentID: doc.DocumentID,
		GCSURI:     gcsURI,
	}
	if err := h.publisher.PublishImportStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("document_id", doc.DocumentID).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().
		Str("user_id", userID).
		Str("document_id", doc.DocumentID).
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Msg("Statement uploaded and import enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"document_id": doc.DocumentID,
		"job_id":      job.JobID,
		"gcs_uri":     gcsURI,
		"status":      string(job.Status),
	})
}

// ListStatements handles GET /api/statements
func (h *StatementsHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	documents, err := h.repo.ListUserDocuments(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list statements")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	repo bigquery.LedgerRepository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo bigquery.LedgerRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	// Parse query parameters
	query := r.URL.Query()
	startDateStr := query.Get("start_date")
	endDateStr := query.Get("end_date")

	var startDate, endDate time.Time
	var err error

	if startDateStr != "" {
		startDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	} else {
		startDate = time.Now().AddDate(-1, 0, 0) // 1 year ago
	}

	if endDateStr != "" {
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	} else {
		endDate = time.Now()
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []*bigquery.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	repo bigquery.LedgerRepository
	log  zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(repo bigquery.LedgerRepository, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		repo: repo,
		log:  log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	categories, err := h.repo.ListCategories(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != userID {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID:     middleware.UserIDFromContext(ctx),
		DocumentID: query.Get("document_id"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// ReceiptsHandler turns OCR'd receipt text into a categorized expense
// suggestion.
type ReceiptsHandler struct {
	resolver *categorize.Resolver
	log      zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(resolver *categorize.Resolver, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		resolver: resolver,
		log:      log,
	}
}

// ScanReceipt handles POST /api/receipts/scan
// The request body carries the receipt's OCR text; the response is the
// extracted merchant, total, date, and suggested category.
func (h *ReceiptsHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := receipt.ParseText(req.Text)
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not identify expense amount from receipt")
		return
	}

	resp := map[string]interface{}{
		"merchant": rec.Merchant,
		"total":    rec.Total.StringFixed(2),
		"category": h.resolver.Resolve(rec.Merchant),
	}
	if rec.Date != nil {
		resp["date"] = rec.Date.Format("2006-01-02")
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
