package domain

import (
	"time"
)

// Sentinel values applied when the extraction service cannot find a field.
// A missing field is not an extraction failure; it maps to these defaults.
const (
	UnknownMerchant = "Unknown"
	DefaultCurrency = "USD"
	DefaultCategory = "Uncategorized"
)

// Transaction is the canonical record of one persisted receipt.
// RecordID is assigned by the operational store on create and is empty before
// the write completes. Records are append-only: corrections produce a new
// record, never an in-place edit.
type Transaction struct {
	RecordID  string     `json:"record_id,omitempty"`
	UserID    string     `json:"user_id"`
	Merchant  string     `json:"merchant_name"`
	Amount    float64    `json:"total_amount"`
	Currency  string     `json:"currency"`
	Date      *time.Time `json:"date"` // nil when no date could be extracted
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"created_at"` // assigned at persistence time
}

// Expense is the analytical read model: one row of a user's spending history
// as returned by the analytical store for context assembly.
type Expense struct {
	Merchant  string
	Amount    float64
	Currency  string
	Date      *time.Time
	Category  string
	CreatedAt time.Time
}
