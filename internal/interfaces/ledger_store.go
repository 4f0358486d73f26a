package interfaces

import (
	"context"

	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore is the durable append-only home of ledger entries. It holds no
// business rules; admission decisions belong to the ledger package.
type LedgerStore interface {
	// Exists reports whether an entry with this event id was ever accepted.
	Exists(ctx context.Context, eventID string) (bool, error)

	// CurrentBalance returns the signed sum over all entries for the account
	// and the event id of the most recently appended entry, nil if the
	// account has no history. The balance is always recomputed from the full
	// entry set, never read from a maintained counter.
	CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, *string, error)

	// RunningBalance returns the account's entries ordered by
	// (event timestamp, event id) with a prefix-sum balance after each one.
	RunningBalance(ctx context.Context, accountID string) ([]models.RunningBalanceEntry, error)

	// Append stores a new entry. It fails with storage.ErrDuplicateKey if an
	// entry with the same event id already exists.
	Append(ctx context.Context, entry models.LedgerEntry) error
}
