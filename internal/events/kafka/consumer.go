package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models/events"
)

const defaultRetryDelay = 2 * time.Second

// Consumer pulls transaction events from one topic and feeds them through
// the ledger. The raw and corrections topics each get their own Consumer;
// they share the admission path and differ only in the correction flag.
//
// Offsets are the acknowledgment: a message is committed only after a
// terminal outcome (accepted, duplicate, rejected-and-dead-lettered, or
// malformed-and-dead-lettered). Store failures leave the offset uncommitted
// and the message is retried in place.
type Consumer struct {
	reader       *kafka.Reader
	topic        string
	isCorrection bool
	ledger       *ledger.Ledger
	deadLetter   interfaces.EventPublisher
	log          *zap.Logger
	retryDelay   time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, isCorrection bool,
	ldg *ledger.Ledger, deadLetter interfaces.EventPublisher, log *zap.Logger) *Consumer {

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		topic:        topic,
		isCorrection: isCorrection,
		ledger:       ldg,
		deadLetter:   deadLetter,
		log:          log.With(zap.String("topic", topic)),
		retryDelay:   defaultRetryDelay,
	}
}

// Run consumes until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	c.log.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.log.Info("consumer stopped")
				return nil
			}
			return fmt.Errorf("fetching message from %s: %w", c.topic, err)
		}

		// Retry transient failures in place so the offset commit below
		// cannot run ahead of an undecided message.
		for {
			err = c.process(ctx, msg.Value)
			if err == nil {
				break
			}
			c.log.Error("processing failed, retrying",
				zap.Int64("offset", msg.Offset), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("committing offset on %s: %w", c.topic, err)
		}
	}
}

// process takes one message payload to a terminal outcome. A nil return
// means the message may be committed; an error means a transient failure.
func (c *Consumer) process(ctx context.Context, payload []byte) error {
	var event models.TransactionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.discard(ctx, payload, fmt.Sprintf("malformed payload: %v", err))
	}

	entry, err := event.LedgerEntry(c.isCorrection)
	if err != nil {
		return c.discard(ctx, payload, err.Error())
	}

	decision, err := c.ledger.Submit(ctx, entry)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("event_id", entry.EventID),
		zap.String("account_id", entry.AccountID),
		zap.Bool("is_correction", entry.IsCorrection),
		zap.String("decision", decision.String()),
	}

	switch decision {
	case ledger.DuplicateIgnored:
		c.log.Warn("duplicate event ignored", fields...)
	case ledger.RejectedInsufficientBalance:
		c.log.Error("event would drive balance negative", fields...)
		return c.discard(ctx, payload, "insufficient balance")
	default:
		c.log.Info("ledger entry created", fields...)
	}
	return nil
}

// discard routes a terminally failed message to the dead-letter topic. A
// publish failure is transient: the caller retries and the offset stays
// uncommitted until the dead letter is durably written.
func (c *Consumer) discard(ctx context.Context, payload []byte, reason string) error {
	c.log.Warn("dead-lettering event", zap.String("reason", reason))

	dead := events.EventDeadLettered{
		Reason:      reason,
		SourceTopic: c.topic,
		Payload:     json.RawMessage(payload),
		OccurredAt:  time.Now().UTC(),
	}
	if err := c.deadLetter.Publish(ctx, c.topic, dead); err != nil {
		return fmt.Errorf("publishing dead letter: %w", err)
	}
	return nil
}
