package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/domain"
	"github.com/lumenai/lumen-agent/internal/extraction"
	"github.com/lumenai/lumen-agent/internal/jobs"
)

// allowedMimeTypes are the only receipt formats accepted for ingestion.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// OperationalStore is the low-latency keyed record store. The generated
// record ID is authoritative and exists only after CreateTransaction returns.
type OperationalStore interface {
	CreateTransaction(ctx context.Context, tx domain.Transaction) (string, error)
}

// AnalyticalStore is the append-only spending history table.
type AnalyticalStore interface {
	AppendExpense(ctx context.Context, tx domain.Transaction) error
}

// Archiver stores the raw receipt bytes for audit and backfill.
type Archiver interface {
	ArchiveReceipt(ctx context.Context, userID string, content []byte, mimeType string) (string, error)
}

// Service runs the ingestion path: validation, field extraction, then the
// dual write. The operational write is the single commit point; the
// analytical write is best effort.
type Service struct {
	extractor   extraction.Extractor
	operational OperationalStore
	analytical  AnalyticalStore
	archiver    Archiver       // optional
	reconciler  jobs.Publisher // optional
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates the ingestion service. archiver and reconciler may be
// nil; both are best-effort side channels.
func NewService(extractor extraction.Extractor, operational OperationalStore, analytical AnalyticalStore, archiver Archiver, reconciler jobs.Publisher, log zerolog.Logger) *Service {
	return &Service{
		extractor:   extractor,
		operational: operational,
		analytical:  analytical,
		archiver:    archiver,
		reconciler:  reconciler,
		log:         log,
		now:         time.Now,
	}
}

// IngestResult is returned on successful ingestion.
type IngestResult struct {
	RecordID string
	Record   domain.Transaction
}

// Ingest validates the upload, extracts receipt fields and persists the
// resulting transaction record. Input validation happens before any external
// call; extraction failure aborts with nothing persisted.
func (s *Service) Ingest(ctx context.Context, userID string, content []byte, mimeType string) (IngestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return IngestResult{}, domain.NewError(domain.ErrorInvalidInput, "empty_user_id", nil)
	}
	if !allowedMimeTypes[mimeType] {
		return IngestResult{}, domain.NewError(domain.ErrorInvalidInput, "unsupported_mime_type", nil)
	}
	if len(content) == 0 {
		return IngestResult{}, domain.NewError(domain.ErrorInvalidInput, "empty_file", nil)
	}

	fields, err := s.extractor.Extract(ctx, content, mimeType)
	if err != nil {
		return IngestResult{}, domain.NewError(domain.ErrorExtractionUnavailable, "extraction_call_failed", err)
	}

	tx := extraction.Normalize(fields, userID)

	record, err := s.persist(ctx, tx)
	if err != nil {
		return IngestResult{}, err
	}

	s.archive(ctx, userID, record.RecordID, content, mimeType)

	return IngestResult{RecordID: record.RecordID, Record: record}, nil
}

// persist writes the record to the operational store first, then appends the
// analytical row. The operational write must succeed; losing the analytical
// row is recoverable by reconciliation, losing the user-visible record is not.
func (s *Service) persist(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	tx.CreatedAt = s.now().UTC()

	recordID, err := s.operational.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, domain.NewError(domain.ErrorOperationalWriteFailed, "operational_create_failed", err)
	}
	tx.RecordID = recordID

	if err := s.analytical.AppendExpense(ctx, tx); err != nil {
		// Degraded consistency: the record is durably visible to the user
		// but the analytical row is absent until reconciled. Not a request
		// error.
		s.log.Warn().
			Err(err).
			Str("code", string(domain.ErrorAnalyticalWriteFailed)).
			Str("record_id", recordID).
			Str("user_id", tx.UserID).
			Msg("Analytical write failed, row missing until reconciled")
		s.enqueueReconcile(ctx, tx)
	}

	return tx, nil
}

// enqueueReconcile hands the missing analytical row to the backfill queue.
// Enqueue failure is only logged; the request has already committed.
func (s *Service) enqueueReconcile(ctx context.Context, tx domain.Transaction) {
	if s.reconciler == nil {
		return
	}

	job := &jobs.ReconcileExpenseJob{
		RecordID:    tx.RecordID,
		Transaction: tx,
	}
	if err := s.reconciler.PublishReconcileExpense(ctx, job); err != nil {
		s.log.Error().
			Err(err).
			Str("record_id", tx.RecordID).
			Msg("Failed to enqueue reconcile job")
	}
}

// archive stores the raw receipt bytes, best effort.
func (s *Service) archive(ctx context.Context, userID, recordID string, content []byte, mimeType string) {
	if s.archiver == nil {
		return
	}

	uri, err := s.archiver.ArchiveReceipt(ctx, userID, content, mimeType)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("record_id", recordID).
			Msg("Receipt archival failed")
		return
	}
	s.log.Debug().
		Str("record_id", recordID).
		Str("uri", uri).
		Msg("Receipt archived")
}
