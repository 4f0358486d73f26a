package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage"
)

// uniqueViolation is the Postgres error code raised when an insert hits the
// event_id unique constraint.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	seq             BIGSERIAL PRIMARY KEY,
	event_id        TEXT        NOT NULL UNIQUE,
	account_id      TEXT        NOT NULL,
	type            TEXT        NOT NULL,
	amount          NUMERIC(20,4) NOT NULL CHECK (amount >= 0),
	event_timestamp TIMESTAMPTZ NOT NULL,
	is_correction   BOOLEAN     NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries (account_id);
`

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Init creates the ledger_entries table if it does not exist yet.
func (p *PostgresLedgerStore) Init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) Exists(ctx context.Context, eventID string) (bool, error) {
	const query = `SELECT 1 FROM ledger_entries WHERE event_id = $1 LIMIT 1`

	var one int
	err := p.db.QueryRowContext(ctx, query, eventID).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (p *PostgresLedgerStore) Append(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO ledger_entries (event_id, account_id, type, amount, event_timestamp, is_correction)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := p.db.ExecContext(ctx, query,
		entry.EventID, entry.AccountID, string(entry.Type), entry.Amount, entry.EventTimestamp, entry.IsCorrection)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, entry.EventID)
	}
	return err
}

// CurrentBalance recomputes the balance from the full entry set on every
// call. The last event id is resolved by append order (seq), not event time.
func (p *PostgresLedgerStore) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, *string, error) {
	const balanceQuery = `
	SELECT COALESCE(SUM(
		CASE
			WHEN type = 'CREDIT' THEN amount
			WHEN type = 'DEBIT'  THEN -amount
			ELSE 0
		END
	), 0)
	FROM ledger_entries
	WHERE account_id = $1`

	var balance decimal.Decimal
	if err := p.db.QueryRowContext(ctx, balanceQuery, accountID).Scan(&balance); err != nil {
		return decimal.Zero, nil, err
	}

	const lastEventQuery = `
	SELECT event_id FROM ledger_entries
	WHERE account_id = $1
	ORDER BY seq DESC
	LIMIT 1`

	var lastEvent string
	err := p.db.QueryRowContext(ctx, lastEventQuery, accountID).Scan(&lastEvent)
	if errors.Is(err, sql.ErrNoRows) {
		return balance, nil, nil
	}
	if err != nil {
		return decimal.Zero, nil, err
	}

	return balance, &lastEvent, nil
}

func (p *PostgresLedgerStore) RunningBalance(ctx context.Context, accountID string) ([]models.RunningBalanceEntry, error) {
	const query = `
	SELECT
		event_id,
		account_id,
		type,
		amount,
		event_timestamp,
		SUM(
			CASE
				WHEN type = 'CREDIT' THEN amount
				WHEN type = 'DEBIT'  THEN -amount
				ELSE 0
			END
		) OVER (
			PARTITION BY account_id
			ORDER BY event_timestamp, event_id
			ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW
		) AS running_balance
	FROM ledger_entries
	WHERE account_id = $1
	ORDER BY event_timestamp, event_id`

	rows, err := p.db.QueryContext(ctx, query, accountID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var entries []models.RunningBalanceEntry
	for rows.Next() {
		var entry models.RunningBalanceEntry
		var entryType string
		if err := rows.Scan(
			&entry.EventID,
			&entry.AccountID,
			&entryType,
			&entry.Amount,
			&entry.EventTimestamp,
			&entry.RunningBalance,
		); err != nil {
			return nil, err
		}
		entry.Type = models.EntryType(entryType)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
