package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage"
)

// Decision is the terminal outcome of submitting an event. Any Decision is
// safe to acknowledge back to the transport; only a non-nil error (a store
// failure) warrants redelivery.
type Decision int

const (
	DecisionUnknown Decision = iota
	Accepted
	DuplicateIgnored
	RejectedInsufficientBalance
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case DuplicateIgnored:
		return "duplicate_ignored"
	case RejectedInsufficientBalance:
		return "rejected_insufficient_balance"
	default:
		return "unknown"
	}
}

// Ledger is the only write path into the store. It deduplicates events,
// enforces the non-negative balance rule, and serializes the
// check-then-append sequence per account.
type Ledger struct {
	store interfaces.LedgerStore // storage implementation, memory or Postgres
	muMap map[string]*sync.Mutex // one mutex per account id
	mapMu sync.Mutex             // protects the muMap itself
}

// NewLedger is a constructor function that creates a new Ledger instance.
// We pass in a storage implementation (MemoryLedgerStore, Postgres, etc.)
func NewLedger(store interfaces.LedgerStore) *Ledger {
	return &Ledger{
		store: store,
		muMap: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {

	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// Submit decides whether an entry may join the ledger.
//
// The balance read, the prospective-balance check, and the append form a
// read-modify-write that runs under the account's mutex: two concurrent
// submissions for the same account could otherwise both read the same
// balance and jointly drive it negative. Accounts never contend with each
// other. The decision is made against the balance as accepted so far, not a
// timestamp-ordered replay, so a late-arriving event with an earlier
// timestamp still checks against the current balance.
func (l *Ledger) Submit(ctx context.Context, entry models.LedgerEntry) (Decision, error) {

	// Idempotency check: replays of an already-accepted event are no-ops.
	exists, err := l.store.Exists(ctx, entry.EventID)
	if err != nil {
		return DecisionUnknown, fmt.Errorf("checking for duplicate event: %w", err)
	}
	if exists {
		return DuplicateIgnored, nil
	}

	mu := l.getAccountLock(entry.AccountID)
	mu.Lock()
	defer mu.Unlock()

	balance, _, err := l.store.CurrentBalance(ctx, entry.AccountID)
	if err != nil {
		return DecisionUnknown, fmt.Errorf("reading balance for account %s: %w", entry.AccountID, err)
	}

	prospective := balance.Add(entry.Type.Signed(entry.Amount))
	if prospective.IsNegative() {
		return RejectedInsufficientBalance, nil
	}

	if err := l.store.Append(ctx, entry); err != nil {
		// A racing accepter of the same event id beat us to the unique
		// constraint. Absorb it as a duplicate.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return DuplicateIgnored, nil
		}
		return DecisionUnknown, fmt.Errorf("appending ledger entry: %w", err)
	}

	return Accepted, nil
}
