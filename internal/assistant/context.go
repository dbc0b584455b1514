package assistant

import (
	"context"
	"encoding/json"

	"github.com/lumenai/lumen-agent/internal/domain"
)

// maxContextRows bounds the context window to keep prompts small.
const maxContextRows = 50

// ExpenseReader reads a user's spending history from the analytical store.
type ExpenseReader interface {
	QueryRecentExpenses(ctx context.Context, userID string, limit int) ([]domain.Expense, error)
}

// ContextWindow is the ephemeral, per-request slice of a user's spending
// history: up to maxContextRows records, newest first. It is built fresh on
// every query and never cached or persisted.
type ContextWindow struct {
	Expenses []domain.Expense
}

// Empty reports whether the window carries no data. Callers must render an
// empty window as an explicit sentence, never as a blank block: a model shown
// an empty block may fabricate content instead of acknowledging absence.
func (w ContextWindow) Empty() bool {
	return len(w.Expenses) == 0
}

type expenseJSON struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Date     *string `json:"date"`
	Category string  `json:"category"`
}

// JSON serializes the window for prompt embedding.
func (w ContextWindow) JSON() string {
	rows := make([]expenseJSON, 0, len(w.Expenses))
	for _, e := range w.Expenses {
		row := expenseJSON{
			Merchant: e.Merchant,
			Amount:   e.Amount,
			Currency: e.Currency,
			Category: e.Category,
		}
		if e.Date != nil {
			d := e.Date.Format("2006-01-02")
			row.Date = &d
		}
		rows = append(rows, row)
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Assembler builds context windows from the analytical store.
type Assembler struct {
	reader ExpenseReader
}

// NewAssembler creates a context assembler over the given expense reader.
func NewAssembler(reader ExpenseReader) *Assembler {
	return &Assembler{reader: reader}
}

// Assemble loads up to maxContextRows most-recent records for the user.
// A user with no records yields an empty window (explicit marker via Empty),
// not an error. A store failure is fatal: no partial or cached context is
// substituted.
func (a *Assembler) Assemble(ctx context.Context, userID string) (ContextWindow, error) {
	expenses, err := a.reader.QueryRecentExpenses(ctx, userID, maxContextRows)
	if err != nil {
		return ContextWindow{}, domain.NewError(domain.ErrorContextStoreUnavailable, "context_query_failed", err)
	}
	if len(expenses) > maxContextRows {
		expenses = expenses[:maxContextRows]
	}
	return ContextWindow{Expenses: expenses}, nil
}
