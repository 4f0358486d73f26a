package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() TransactionEvent {
	return TransactionEvent{
		EventID:   "evt-1",
		AccountID: "ACC-001",
		Type:      "CREDIT",
		Amount:    decimal.NewFromInt(100),
		Timestamp: EventTime{Time: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestParseEntryType(t *testing.T) {
	tests := []struct {
		input string
		want  EntryType
	}{
		{"CREDIT", EntryTypeCredit},
		{"credit", EntryTypeCredit},
		{"Debit", EntryTypeDebit},
		{" debit ", EntryTypeDebit},
	}
	for _, tc := range tests {
		got, err := ParseEntryType(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseEntryType("TRANSFER")
	assert.Error(t, err)
	_, err = ParseEntryType("")
	assert.Error(t, err)
}

func TestSigned(t *testing.T) {
	amount := decimal.RequireFromString("12.34")
	assert.True(t, EntryTypeCredit.Signed(amount).Equal(amount))
	assert.True(t, EntryTypeDebit.Signed(amount).Equal(amount.Neg()))
}

func TestLedgerEntryFromValidEvent(t *testing.T) {
	entry, err := validEvent().LedgerEntry(true)
	require.NoError(t, err)

	assert.Equal(t, "evt-1", entry.EventID)
	assert.Equal(t, "ACC-001", entry.AccountID)
	assert.Equal(t, EntryTypeCredit, entry.Type)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, entry.IsCorrection)
}

func TestLedgerEntryValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransactionEvent)
	}{
		{"missing event id", func(e *TransactionEvent) { e.EventID = "" }},
		{"missing account id", func(e *TransactionEvent) { e.AccountID = "" }},
		{"unknown type", func(e *TransactionEvent) { e.Type = "TRANSFER" }},
		{"zero amount", func(e *TransactionEvent) { e.Amount = decimal.Zero }},
		{"negative amount", func(e *TransactionEvent) { e.Amount = decimal.NewFromInt(-5) }},
		{"missing timestamp", func(e *TransactionEvent) { e.Timestamp = EventTime{} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event := validEvent()
			tc.mutate(&event)

			_, err := event.LedgerEntry(false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestEventTimeUnmarshalRFC3339(t *testing.T) {
	var event TransactionEvent
	payload := `{"event_id":"e1","account_id":"A","type":"credit","amount":"25.50","timestamp":"2026-08-01T12:30:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC), event.Timestamp.Time)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("25.50")))
}

func TestEventTimeUnmarshalEpoch(t *testing.T) {
	var ts EventTime
	require.NoError(t, json.Unmarshal([]byte(`1767225600`), &ts))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), ts.Time)

	require.NoError(t, json.Unmarshal([]byte(`1767225600.5`), &ts))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 500000000, time.UTC), ts.Time)
}

func TestEventTimeUnmarshalGarbage(t *testing.T) {
	var ts EventTime
	err := json.Unmarshal([]byte(`"yesterday"`), &ts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	err = ts.UnmarshalJSON([]byte(`null`))
	assert.Error(t, err)
}

func TestEventTimeMarshalRoundTrip(t *testing.T) {
	ts := EventTime{Time: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)}
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-08-01T12:30:00Z"`, string(data))
}
