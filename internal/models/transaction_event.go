package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidEvent marks a malformed inbound event. Events failing with this
// error are rejected before any store access and must not be retried.
var ErrInvalidEvent = errors.New("invalid transaction event")

// EventTime accepts either an RFC3339 string or epoch seconds (optionally
// fractional) on the wire and always marshals back as RFC3339.
type EventTime struct {
	time.Time
}

func (t *EventTime) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("%w: timestamp %q is not RFC3339", ErrInvalidEvent, s)
		}
		t.Time = parsed
		return nil
	}

	epoch, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp %s is neither RFC3339 nor epoch seconds", ErrInvalidEvent, data)
	}
	sec, frac := math.Modf(epoch)
	t.Time = time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	return nil
}

func (t EventTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// TransactionEvent is the wire shape consumed from both the raw and the
// corrections topic. The two channels differ only in the correction flag
// applied when the event is turned into a ledger entry.
type TransactionEvent struct {
	EventID   string          `json:"event_id"`
	AccountID string          `json:"account_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp EventTime       `json:"timestamp"`
}

// LedgerEntry validates the event and converts it into an immutable entry.
// All failures wrap ErrInvalidEvent so callers can treat them as terminal.
func (e TransactionEvent) LedgerEntry(isCorrection bool) (LedgerEntry, error) {
	if e.EventID == "" {
		return LedgerEntry{}, fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	}
	if e.AccountID == "" {
		return LedgerEntry{}, fmt.Errorf("%w: account_id is required", ErrInvalidEvent)
	}
	entryType, err := ParseEntryType(e.Type)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !e.Amount.IsPositive() {
		return LedgerEntry{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidEvent, e.Amount)
	}
	if e.Timestamp.IsZero() {
		return LedgerEntry{}, fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}

	return LedgerEntry{
		EventID:        e.EventID,
		AccountID:      e.AccountID,
		Type:           entryType,
		Amount:         e.Amount,
		EventTimestamp: e.Timestamp.Time,
		IsCorrection:   isCorrection,
	}, nil
}
