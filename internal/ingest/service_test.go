package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/domain"
	"github.com/lumenai/lumen-agent/internal/extraction"
	"github.com/lumenai/lumen-agent/internal/jobs"
)

type stubExtractor struct {
	calls  int
	fields extraction.Fields
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, content []byte, mimeType string) (extraction.Fields, error) {
	s.calls++
	return s.fields, s.err
}

type stubOperationalStore struct {
	calls   int
	created []domain.Transaction
	id      string
	err     error
}

func (s *stubOperationalStore) CreateTransaction(ctx context.Context, tx domain.Transaction) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.created = append(s.created, tx)
	return s.id, nil
}

type stubAnalyticalStore struct {
	calls    int
	appended []domain.Transaction
	err      error
}

func (s *stubAnalyticalStore) AppendExpense(ctx context.Context, tx domain.Transaction) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, tx)
	return nil
}

type stubPublisher struct {
	calls     int
	published []*jobs.ReconcileExpenseJob
	err       error
}

func (s *stubPublisher) PublishReconcileExpense(ctx context.Context, job *jobs.ReconcileExpenseJob) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, job)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func newTestService(ex *stubExtractor, op *stubOperationalStore, an *stubAnalyticalStore, pub *stubPublisher) *Service {
	var reconciler jobs.Publisher
	if pub != nil {
		reconciler = pub
	}
	svc := NewService(ex, op, an, nil, reconciler, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestIngest_Success(t *testing.T) {
	ex := &stubExtractor{fields: extraction.Fields{
		Merchant:   "Cafe Luna",
		AmountText: "42.50",
		DateText:   "2024-03-01",
	}}
	op := &stubOperationalStore{id: "rec-123"}
	an := &stubAnalyticalStore{}
	svc := newTestService(ex, op, an, nil)

	res, err := svc.Ingest(context.Background(), "user-1", []byte("jpeg-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if res.RecordID != "rec-123" {
		t.Errorf("RecordID = %q, want rec-123", res.RecordID)
	}
	if res.Record.Merchant != "Cafe Luna" || res.Record.Amount != 42.50 {
		t.Errorf("Record = %+v, want Cafe Luna / 42.50", res.Record)
	}
	if res.Record.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned at persistence time")
	}
	if op.calls != 1 || an.calls != 1 {
		t.Errorf("store calls = %d/%d, want 1/1", op.calls, an.calls)
	}
}

func TestIngest_InvalidInput_NoExternalCalls(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		content  []byte
		mimeType string
		reason   string
	}{
		{"unsupported mime type", "user-1", []byte("x"), "text/plain", "unsupported_mime_type"},
		{"empty user id", "", []byte("x"), "image/png", "empty_user_id"},
		{"blank user id", "   ", []byte("x"), "image/png", "empty_user_id"},
		{"empty file", "user-1", nil, "image/png", "empty_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &stubExtractor{}
			op := &stubOperationalStore{id: "rec-1"}
			an := &stubAnalyticalStore{}
			svc := newTestService(ex, op, an, nil)

			_, err := svc.Ingest(context.Background(), tt.userID, tt.content, tt.mimeType)

			code, ok := domain.CodeOf(err)
			if !ok || code != domain.ErrorInvalidInput {
				t.Fatalf("error = %v, want %s", err, domain.ErrorInvalidInput)
			}
			if ex.calls != 0 || op.calls != 0 || an.calls != 0 {
				t.Errorf("external calls = %d/%d/%d, want 0/0/0", ex.calls, op.calls, an.calls)
			}
		})
	}
}

func TestIngest_ExtractionUnavailable_NothingPersisted(t *testing.T) {
	ex := &stubExtractor{err: errors.New("deadline exceeded")}
	op := &stubOperationalStore{id: "rec-1"}
	an := &stubAnalyticalStore{}
	svc := newTestService(ex, op, an, nil)

	_, err := svc.Ingest(context.Background(), "user-1", []byte("x"), "application/pdf")

	code, ok := domain.CodeOf(err)
	if !ok || code != domain.ErrorExtractionUnavailable {
		t.Fatalf("error = %v, want %s", err, domain.ErrorExtractionUnavailable)
	}
	if op.calls != 0 || an.calls != 0 {
		t.Errorf("store calls = %d/%d, want 0/0", op.calls, an.calls)
	}
}

func TestIngest_OperationalWriteFailed_Fatal(t *testing.T) {
	ex := &stubExtractor{}
	op := &stubOperationalStore{err: errors.New("unavailable")}
	an := &stubAnalyticalStore{}
	svc := newTestService(ex, op, an, nil)

	_, err := svc.Ingest(context.Background(), "user-1", []byte("x"), "image/jpeg")

	code, ok := domain.CodeOf(err)
	if !ok || code != domain.ErrorOperationalWriteFailed {
		t.Fatalf("error = %v, want %s", err, domain.ErrorOperationalWriteFailed)
	}
	if an.calls != 0 {
		t.Errorf("analytical calls = %d, want 0 (operational write strictly precedes)", an.calls)
	}
}

func TestIngest_AnalyticalWriteFailed_StillSucceeds(t *testing.T) {
	ex := &stubExtractor{fields: extraction.Fields{Merchant: "Cafe Luna", AmountText: "10.00"}}
	op := &stubOperationalStore{id: "rec-9"}
	an := &stubAnalyticalStore{err: errors.New("streaming insert failed")}
	pub := &stubPublisher{}
	svc := newTestService(ex, op, an, pub)

	res, err := svc.Ingest(context.Background(), "user-1", []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatalf("Ingest() error = %v, want success despite analytical failure", err)
	}
	if res.RecordID != "rec-9" {
		t.Errorf("RecordID = %q, want rec-9", res.RecordID)
	}

	// Divergence is observable: record created operationally, no analytical
	// row, and a reconcile job carrying the content.
	if len(op.created) != 1 {
		t.Fatalf("operational records = %d, want 1", len(op.created))
	}
	if len(an.appended) != 0 {
		t.Errorf("analytical rows = %d, want 0", len(an.appended))
	}
	if pub.calls != 1 {
		t.Fatalf("reconcile jobs published = %d, want 1", pub.calls)
	}
	job := pub.published[0]
	if job.RecordID != "rec-9" || job.Transaction.Merchant != "Cafe Luna" {
		t.Errorf("reconcile job = %+v, want rec-9 / Cafe Luna", job)
	}
}

func TestIngest_ReconcileEnqueueFailure_Absorbed(t *testing.T) {
	ex := &stubExtractor{}
	op := &stubOperationalStore{id: "rec-2"}
	an := &stubAnalyticalStore{err: errors.New("down")}
	pub := &stubPublisher{err: errors.New("queue full")}
	svc := newTestService(ex, op, an, pub)

	res, err := svc.Ingest(context.Background(), "user-1", []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("Ingest() error = %v, want success", err)
	}
	if res.RecordID != "rec-2" {
		t.Errorf("RecordID = %q, want rec-2", res.RecordID)
	}
}

func TestIngest_NotIdempotent(t *testing.T) {
	ex := &stubExtractor{}
	op := &stubOperationalStore{id: "rec-a"}
	an := &stubAnalyticalStore{}
	svc := newTestService(ex, op, an, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Ingest(context.Background(), "user-1", []byte("x"), "image/jpeg"); err != nil {
			t.Fatalf("Ingest() #%d error = %v", i+1, err)
		}
	}

	if len(op.created) != 2 || len(an.appended) != 2 {
		t.Errorf("records = %d/%d, want 2/2 (each call appends independently)", len(op.created), len(an.appended))
	}
}
