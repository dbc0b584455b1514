package extraction

import (
	"strconv"
	"strings"
	"time"

	"github.com/lumenai/lumen-agent/internal/domain"
)

const dateLayout = "2006-01-02"

// Normalize maps raw extraction fields onto a canonical transaction record,
// applying the documented defaults for anything the processor did not find.
// Absence is never an error here; only the upstream call itself can fail.
func Normalize(fields Fields, userID string) domain.Transaction {
	tx := domain.Transaction{
		UserID:   userID,
		Merchant: domain.UnknownMerchant,
		Currency: domain.DefaultCurrency,
		Category: domain.DefaultCategory,
	}

	if m := strings.TrimSpace(fields.Merchant); m != "" {
		tx.Merchant = m
	}
	if c := strings.TrimSpace(fields.Currency); c != "" {
		tx.Currency = strings.ToUpper(c)
	}
	tx.Amount = parseAmount(fields.AmountText)
	tx.Date = parseDate(fields.DateText)

	return tx
}

// parseAmount reads the leading numeric token of a normalized money value.
// Document AI may return "42.50" or "42.50 USD"; anything unparseable maps to
// the zero default.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, ' '); i != -1 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &d
}
