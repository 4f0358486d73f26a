package storage

import "errors"

// ErrDuplicateKey is returned by LedgerStore.Append when an entry with the
// same event id already exists. The ledger treats it as a duplicate event,
// never as a hard failure.
var ErrDuplicateKey = errors.New("ledger entry already exists for event id")
