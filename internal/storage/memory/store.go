package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sort"
	"sync" // standard Go package for concurrency primitives like Mutex

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Entries are kept in append order; it is thread-safe for concurrent use.
type MemoryLedgerStore struct {
	mu      sync.Mutex           // protects entries and byEventID
	entries []models.LedgerEntry // all accepted entries, in append order
	byEvent map[string]struct{}  // event ids already accepted, the dedup index
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		entries: make([]models.LedgerEntry, 0),
		byEvent: make(map[string]struct{}),
	}
}

func (m *MemoryLedgerStore) Exists(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.byEvent[eventID]
	return exists, nil
}

func (m *MemoryLedgerStore) Append(ctx context.Context, entry models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEvent[entry.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	m.entries = append(m.entries, entry)
	m.byEvent[entry.EventID] = struct{}{}
	return nil
}

// CurrentBalance sums the signed amounts of every entry for the account.
// The last event id follows append order, not event-timestamp order.
func (m *MemoryLedgerStore) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := decimal.Zero
	var lastEvent *string
	for i := range m.entries {
		e := m.entries[i]
		if e.AccountID != accountID {
			continue
		}
		balance = balance.Add(e.Type.Signed(e.Amount))
		id := e.EventID
		lastEvent = &id
	}
	return balance, lastEvent, nil
}

func (m *MemoryLedgerStore) RunningBalance(ctx context.Context, accountID string) ([]models.RunningBalanceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account []models.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			account = append(account, e)
		}
	}

	// Timeline order is (event timestamp, event id), independent of the
	// order entries were appended.
	sort.Slice(account, func(i, j int) bool {
		if !account[i].EventTimestamp.Equal(account[j].EventTimestamp) {
			return account[i].EventTimestamp.Before(account[j].EventTimestamp)
		}
		return account[i].EventID < account[j].EventID
	})

	result := make([]models.RunningBalanceEntry, 0, len(account))
	running := decimal.Zero
	for _, e := range account {
		running = running.Add(e.Type.Signed(e.Amount))
		result = append(result, models.RunningBalanceEntry{
			EventID:        e.EventID,
			AccountID:      e.AccountID,
			Type:           e.Type,
			Amount:         e.Amount,
			EventTimestamp: e.EventTimestamp,
			RunningBalance: running,
		})
	}
	return result, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
