package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/domain"
)

type stubExpenseReader struct {
	calls    int
	lastUser string
	lastLim  int
	expenses []domain.Expense
	err      error
}

func (s *stubExpenseReader) QueryRecentExpenses(ctx context.Context, userID string, limit int) ([]domain.Expense, error) {
	s.calls++
	s.lastUser = userID
	s.lastLim = limit
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.expenses) {
		return s.expenses[:limit], nil
	}
	return s.expenses, nil
}

// echoGenerator returns the prompt it was given, so tests can assert on what
// the model would actually see.
type echoGenerator struct {
	calls int
	err   error
}

func (g *echoGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return prompt, nil
}

func newTestService(reader *stubExpenseReader, gen *echoGenerator) *Service {
	assembler := NewAssembler(reader)
	gateway := NewGateway(gen, time.Second, zerolog.Nop())
	return NewService(assembler, gateway, zerolog.Nop())
}

func expenseOn(merchant string, amount float64, day string) domain.Expense {
	d, _ := time.Parse("2006-01-02", day)
	return domain.Expense{
		Merchant: merchant,
		Amount:   amount,
		Currency: "USD",
		Date:     &d,
		Category: "Uncategorized",
	}
}

func TestAsk_GroundedAnswerCitesContext(t *testing.T) {
	reader := &stubExpenseReader{expenses: []domain.Expense{
		expenseOn("Cafe Luna", 42.50, "2024-03-01"),
	}}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	answer, err := svc.Ask(context.Background(), "user-1", "How much did I spend at Cafe Luna?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// The echo generator returns the prompt: the amount and merchant must be
	// present in the context the model sees.
	if !strings.Contains(answer, "42.5") {
		t.Errorf("prompt does not carry the amount: %s", answer)
	}
	if !strings.Contains(answer, "Cafe Luna") {
		t.Errorf("prompt does not carry the merchant: %s", answer)
	}
	if !strings.Contains(answer, "How much did I spend at Cafe Luna?") {
		t.Errorf("prompt does not carry the question: %s", answer)
	}
}

func TestAsk_EmptyContextRendersSentence(t *testing.T) {
	reader := &stubExpenseReader{}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	answer, err := svc.Ask(context.Background(), "user-1", "What did I spend?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if !strings.Contains(answer, EmptyContextSentence) {
		t.Errorf("empty window not rendered as explicit sentence: %s", answer)
	}
	if strings.Contains(answer, "[]") {
		t.Errorf("empty window leaked as blank JSON block: %s", answer)
	}
}

func TestAsk_InvalidInput(t *testing.T) {
	reader := &stubExpenseReader{}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	tests := []struct {
		name     string
		userID   string
		question string
	}{
		{"empty user", "", "q"},
		{"empty question", "user-1", ""},
		{"blank question", "user-1", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), tt.userID, tt.question)
			code, ok := domain.CodeOf(err)
			if !ok || code != domain.ErrorInvalidInput {
				t.Errorf("error = %v, want %s", err, domain.ErrorInvalidInput)
			}
		})
	}
	if reader.calls != 0 || gen.calls != 0 {
		t.Errorf("external calls = %d/%d, want 0/0", reader.calls, gen.calls)
	}
}

func TestAsk_ContextStoreUnavailable_Fatal(t *testing.T) {
	reader := &stubExpenseReader{err: errors.New("bigquery down")}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	_, err := svc.Ask(context.Background(), "user-1", "q")

	code, ok := domain.CodeOf(err)
	if !ok || code != domain.ErrorContextStoreUnavailable {
		t.Fatalf("error = %v, want %s", err, domain.ErrorContextStoreUnavailable)
	}
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0 (no partial context substituted)", gen.calls)
	}
}

func TestReport_EmptyContextShortCircuits(t *testing.T) {
	reader := &stubExpenseReader{}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	report, err := svc.Report(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report != NoReportDataMessage {
		t.Errorf("report = %q, want fixed no-data message", report)
	}
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0 on empty context", gen.calls)
	}
}

func TestReport_WithData(t *testing.T) {
	reader := &stubExpenseReader{expenses: []domain.Expense{
		expenseOn("Grocer", 55.10, "2024-04-02"),
	}}
	gen := &echoGenerator{}
	svc := newTestService(reader, gen)

	report, err := svc.Report(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if !strings.Contains(report, "Grocer") {
		t.Errorf("report prompt missing spending data: %s", report)
	}
	if !strings.Contains(report, "Monthly Financial Health Report") {
		t.Errorf("report prompt missing report directive: %s", report)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}
