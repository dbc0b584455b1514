package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/lumenai/lumen-agent/internal/domain"
)

func TestAssemble_EmptyWindow(t *testing.T) {
	reader := &stubExpenseReader{}
	assembler := NewAssembler(reader)

	window, err := assembler.Assemble(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if !window.Empty() {
		t.Error("window.Empty() = false, want true for a user with no records")
	}
	if reader.lastUser != "user-1" {
		t.Errorf("queried user = %q, want user-1", reader.lastUser)
	}
}

func TestAssemble_BoundedAtFifty(t *testing.T) {
	var expenses []domain.Expense
	for i := 0; i < 80; i++ {
		expenses = append(expenses, expenseOn("M", 1, "2024-01-15"))
	}
	reader := &stubExpenseReader{expenses: expenses}
	assembler := NewAssembler(reader)

	window, err := assembler.Assemble(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if reader.lastLim != maxContextRows {
		t.Errorf("query limit = %d, want %d", reader.lastLim, maxContextRows)
	}
	if len(window.Expenses) != maxContextRows {
		t.Errorf("window size = %d, want %d", len(window.Expenses), maxContextRows)
	}
}

func TestContextWindow_JSON(t *testing.T) {
	window := ContextWindow{Expenses: []domain.Expense{
		expenseOn("Cafe Luna", 42.50, "2024-03-01"),
		{Merchant: "Kiosk", Amount: 3, Currency: "USD", Category: "Uncategorized"},
	}}

	out := window.JSON()

	if !strings.Contains(out, `"merchant":"Cafe Luna"`) {
		t.Errorf("JSON missing merchant: %s", out)
	}
	if !strings.Contains(out, `"date":"2024-03-01"`) {
		t.Errorf("JSON missing date: %s", out)
	}
	if !strings.Contains(out, `"date":null`) {
		t.Errorf("nil date not serialized as null: %s", out)
	}
}

func TestContextWindow_JSONEmpty(t *testing.T) {
	if got := (ContextWindow{}).JSON(); got != "[]" {
		t.Errorf("JSON() = %q, want []", got)
	}
}
