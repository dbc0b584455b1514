package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/api/middleware"
	"github.com/lumenai/lumen-agent/internal/domain"
	"github.com/lumenai/lumen-agent/internal/ingest"
	"github.com/lumenai/lumen-agent/internal/jobs"
)

// maxUploadBytes bounds receipt uploads (20 MiB, the Document AI sync limit).
const maxUploadBytes = 20 << 20

// Ingester runs the ingestion path for an uploaded receipt.
type Ingester interface {
	Ingest(ctx context.Context, userID string, content []byte, mimeType string) (ingest.IngestResult, error)
}

// Coach answers questions and produces reports from stored spending data.
type Coach interface {
	Ask(ctx context.Context, userID, question string) (string, error)
	Report(ctx context.Context, userID string) (string, error)
}

// RecentLister reads recent transactions from the operational store.
type RecentLister interface {
	ListRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

// ReceiptsHandler handles receipt ingestion endpoints.
type ReceiptsHandler struct {
	svc Ingester
	log zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(svc Ingester, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc, log: log}
}

// UploadReceipt handles POST /upload-receipt?user_id=...
func (h *ReceiptsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing or invalid file upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")

	result, err := h.svc.Ingest(ctx, userID, content, mimeType)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "success",
		"transaction_id": result.RecordID,
		"data":           result.Record,
	})
}

func (h *ReceiptsHandler) writeIngestError(w http.ResponseWriter, err error) {
	code, _ := domain.CodeOf(err)
	switch code {
	case domain.ErrorInvalidInput:
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file type or user ID")
	case domain.ErrorExtractionUnavailable:
		h.log.Error().Err(err).Msg("Extraction service unavailable")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process document")
	default:
		h.log.Error().Err(err).Msg("Receipt ingestion failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store transaction")
	}
}

// AssistantHandler handles Q&A and report endpoints.
type AssistantHandler struct {
	svc Coach
	log zerolog.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(svc Coach, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{svc: svc, log: log}
}

type askRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

type reportRequest struct {
	UserID string `json:"user_id"`
}

// AskAI handles POST /ask-ai
func (h *AssistantHandler) AskAI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.svc.Ask(ctx, req.UserID, req.Question)
	if err != nil {
		h.writeCoachError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"user_id": req.UserID,
		"answer":  answer,
	})
}

// GetReport handles POST /get-report
func (h *AssistantHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.Report(ctx, req.UserID)
	if err != nil {
		h.writeCoachError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"user_id": req.UserID,
		"report":  report,
	})
}

func (h *AssistantHandler) writeCoachError(w http.ResponseWriter, err error) {
	code, _ := domain.CodeOf(err)
	switch code {
	case domain.ErrorInvalidInput:
		middleware.WriteError(w, http.StatusBadRequest, "user_id and question are required")
	default:
		h.log.Error().Err(err).Msg("Assistant request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to answer from spending history")
	}
}

// TransactionsHandler serves the real-time transaction view.
type TransactionsHandler struct {
	store RecentLister
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store RecentLister, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /api/transactions?user_id=...&limit=...
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	txs, err := h.store.ListRecentTransactions(ctx, userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// JobsHandler exposes reconcile-job state, making operational/analytical
// divergence observable.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/reconcile-jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/reconcile-jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		RecordID: query.Get("record_id"),
		Status:   jobs.JobStatus(query.Get("status")),
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
