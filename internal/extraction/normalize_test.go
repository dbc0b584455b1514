package extraction

import (
	"testing"
	"time"

	"github.com/lumenai/lumen-agent/internal/domain"
)

func TestNormalize_Defaults(t *testing.T) {
	tx := Normalize(Fields{}, "user-1")

	if tx.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", tx.UserID, "user-1")
	}
	if tx.Merchant != domain.UnknownMerchant {
		t.Errorf("Merchant = %q, want %q", tx.Merchant, domain.UnknownMerchant)
	}
	if tx.Amount != 0 {
		t.Errorf("Amount = %v, want 0", tx.Amount)
	}
	if tx.Currency != domain.DefaultCurrency {
		t.Errorf("Currency = %q, want %q", tx.Currency, domain.DefaultCurrency)
	}
	if tx.Date != nil {
		t.Errorf("Date = %v, want nil", tx.Date)
	}
	if tx.Category != domain.DefaultCategory {
		t.Errorf("Category = %q, want %q", tx.Category, domain.DefaultCategory)
	}
}

func TestNormalize_AllFields(t *testing.T) {
	fields := Fields{
		Merchant:   "Cafe Luna",
		AmountText: "42.50",
		DateText:   "2024-03-01",
		Currency:   "eur",
	}

	tx := Normalize(fields, "user-1")

	if tx.Merchant != "Cafe Luna" {
		t.Errorf("Merchant = %q, want %q", tx.Merchant, "Cafe Luna")
	}
	if tx.Amount != 42.50 {
		t.Errorf("Amount = %v, want 42.50", tx.Amount)
	}
	if tx.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", tx.Currency)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if tx.Date == nil || !tx.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", tx.Date, want)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "42.50", 42.50},
		{"with currency suffix", "42.50 USD", 42.50},
		{"thousands separator", "1,234.56", 1234.56},
		{"empty", "", 0},
		{"garbage", "n/a", 0},
		{"whitespace", "  19.99  ", 19.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAmount(tt.input); got != tt.want {
				t.Errorf("parseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if got := parseDate("2024-03-01"); got == nil || got.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("parseDate(valid) = %v", got)
	}
	if got := parseDate("01/03/2024"); got != nil {
		t.Errorf("parseDate(wrong layout) = %v, want nil", got)
	}
	if got := parseDate(""); got != nil {
		t.Errorf("parseDate(empty) = %v, want nil", got)
	}
}
