package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType says whether an entry adds to or subtracts from a balance.
type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// ParseEntryType normalizes a wire-level type string (case-insensitive).
// Anything other than CREDIT or DEBIT is an error, never a default.
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToUpper(strings.TrimSpace(s))); t {
	case EntryTypeCredit, EntryTypeDebit:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Signed returns amount for a credit and its negation for a debit.
func (t EntryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == EntryTypeDebit {
		return amount.Neg()
	}
	return amount
}

// LedgerEntry is a single accepted transaction record for an account.
// Entries are immutable once accepted and are never deleted.
type LedgerEntry struct {
	EventID        string          // unique id of the originating event, dedup key
	AccountID      string          // which account this entry belongs to
	Type           EntryType       // CREDIT or DEBIT
	Amount         decimal.Decimal // always non-negative, sign comes from Type
	EventTimestamp time.Time       // event/business time from the source system
	IsCorrection   bool            // true if the entry came from the corrections channel
}

// RunningBalanceEntry is one step of an account's running-balance timeline,
// ordered by (event timestamp, event id).
type RunningBalanceEntry struct {
	EventID        string
	AccountID      string
	Type           EntryType
	Amount         decimal.Decimal
	EventTimestamp time.Time
	RunningBalance decimal.Decimal
}
