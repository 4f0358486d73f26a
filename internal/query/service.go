package query

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
)

// Service is the read-only projection over the ledger store. It never blocks
// writers and holds no locks; a balance it returns may change immediately
// after the read.
type Service struct {
	store interfaces.LedgerStore
}

func NewService(store interfaces.LedgerStore) *Service {
	return &Service{store: store}
}

// BalanceResponse is the wire shape for a current-balance query. An account
// with no history gets a zero balance and a null last event; unknown
// accounts never fail.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	LastEvent *string         `json:"last_event"`
}

// RunningBalanceItem is one step of the running-balance timeline on the wire.
type RunningBalanceItem struct {
	EventID        string          `json:"event_id"`
	AccountID      string          `json:"account_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	EventTimestamp time.Time       `json:"event_timestamp"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

func (s *Service) Balance(ctx context.Context, accountID string) (BalanceResponse, error) {
	balance, lastEvent, err := s.store.CurrentBalance(ctx, accountID)
	if err != nil {
		return BalanceResponse{}, err
	}

	return BalanceResponse{
		AccountID: accountID,
		Balance:   balance,
		LastEvent: lastEvent,
	}, nil
}

func (s *Service) RunningBalance(ctx context.Context, accountID string) ([]RunningBalanceItem, error) {
	entries, err := s.store.RunningBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	items := make([]RunningBalanceItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, RunningBalanceItem{
			EventID:        e.EventID,
			AccountID:      e.AccountID,
			Type:           string(e.Type),
			Amount:         e.Amount,
			EventTimestamp: e.EventTimestamp,
			RunningBalance: e.RunningBalance,
		})
	}
	return items, nil
}
