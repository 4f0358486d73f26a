package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/shadow-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models/events"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage/memory"
)

// capturePublisher records dead letters instead of writing to Kafka.
type capturePublisher struct {
	published []events.EventDeadLettered
	err       error
}

func (p *capturePublisher) Publish(ctx context.Context, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event.(events.EventDeadLettered))
	return nil
}

func newTestConsumer(store *memory.MemoryLedgerStore, isCorrection bool) (*Consumer, *capturePublisher) {
	dlq := &capturePublisher{}
	return &Consumer{
		topic:        "transactions.raw",
		isCorrection: isCorrection,
		ledger:       ledger.NewLedger(store),
		deadLetter:   dlq,
		log:          zap.NewNop(),
		retryDelay:   time.Millisecond,
	}, dlq
}

func payload(t *testing.T, event models.TransactionEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestProcessAcceptsValidCredit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryLedgerStore()
	consumer, dlq := newTestConsumer(store, false)

	err := consumer.process(ctx, payload(t, models.TransactionEvent{
		EventID:   "e1",
		AccountID: "A",
		Type:      "credit",
		Amount:    decimal.NewFromInt(100),
		Timestamp: models.EventTime{Time: time.Now().UTC()},
	}))
	require.NoError(t, err)
	assert.Empty(t, dlq.published)

	balance, _, err := store.CurrentBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
}

func TestProcessTagsCorrections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryLedgerStore()
	consumer, _ := newTestConsumer(store, true)

	require.NoError(t, consumer.process(ctx, payload(t, models.TransactionEvent{
		EventID:   "c1",
		AccountID: "A",
		Type:      "CREDIT",
		Amount:    decimal.NewFromInt(10),
		Timestamp: models.EventTime{Time: time.Now().UTC()},
	})))

	timeline, err := store.RunningBalance(ctx, "A")
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	// the correction flag comes from the channel, not the payload
	assert.Equal(t, "c1", timeline[0].EventID)
}

func TestProcessDeadLettersMalformedJSON(t *testing.T) {
	consumer, dlq := newTestConsumer(memory.NewMemoryLedgerStore(), false)

	err := consumer.process(context.Background(), []byte(`{not json`))
	require.NoError(t, err, "malformed payload is terminal, not retryable")

	require.Len(t, dlq.published, 1)
	assert.Contains(t, dlq.published[0].Reason, "malformed payload")
	assert.Equal(t, "transactions.raw", dlq.published[0].SourceTopic)
}

func TestProcessDeadLettersInvalidEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryLedgerStore()
	consumer, dlq := newTestConsumer(store, false)

	err := consumer.process(ctx, payload(t, models.TransactionEvent{
		EventID:   "e1",
		AccountID: "A",
		Type:      "TRANSFER", // unknown type must fail, never default
		Amount:    decimal.NewFromInt(10),
		Timestamp: models.EventTime{Time: time.Now().UTC()},
	}))
	require.NoError(t, err)
	require.Len(t, dlq.published, 1)

	// nothing reached the store
	exists, err := store.Exists(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProcessDeadLettersInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryLedgerStore()
	consumer, dlq := newTestConsumer(store, false)

	raw := payload(t, models.TransactionEvent{
		EventID:   "d1",
		AccountID: "A",
		Type:      "DEBIT",
		Amount:    decimal.NewFromInt(50),
		Timestamp: models.EventTime{Time: time.Now().UTC()},
	})

	err := consumer.process(ctx, raw)
	require.NoError(t, err, "a business rejection is terminal and committable")

	require.Len(t, dlq.published, 1)
	assert.Equal(t, "insufficient balance", dlq.published[0].Reason)
	assert.JSONEq(t, string(raw), string(dlq.published[0].Payload))
}

func TestProcessDuplicateIsTerminal(t *testing.T) {
	ctx := context.Background()
	consumer, dlq := newTestConsumer(memory.NewMemoryLedgerStore(), false)

	raw := payload(t, models.TransactionEvent{
		EventID:   "e1",
		AccountID: "A",
		Type:      "CREDIT",
		Amount:    decimal.NewFromInt(10),
		Timestamp: models.EventTime{Time: time.Now().UTC()},
	})

	require.NoError(t, consumer.process(ctx, raw))
	require.NoError(t, consumer.process(ctx, raw), "redelivery of an accepted event is a no-op")
	assert.Empty(t, dlq.published)
}

func TestProcessDeadLetterFailureIsRetryable(t *testing.T) {
	consumer, dlq := newTestConsumer(memory.NewMemoryLedgerStore(), false)
	dlq.err = errors.New("broker unavailable")

	err := consumer.process(context.Background(), []byte(`{not json`))
	require.Error(t, err, "losing a dead letter must keep the offset uncommitted")
}
