package events

import (
	"encoding/json"
	"time"
)

// EventDeadLettered wraps an inbound message that reached a terminal,
// non-retryable outcome (malformed payload or insufficient balance) and was
// routed off the main topic for operator review.
type EventDeadLettered struct {
	Reason      string          `json:"reason"`
	SourceTopic string          `json:"source_topic"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
