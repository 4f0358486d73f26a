// Command producer publishes synthetic transaction events, useful for
// exercising the service locally without an upstream system of record.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	kafkaevents "github.com/sheikh-saqib/shadow-ledger-service/internal/events/kafka"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/models"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := flag.String("topic", "transactions.raw", "topic to publish to")
	count := flag.Int("count", 10, "number of events to publish")
	accounts := flag.Int("accounts", 3, "number of distinct accounts")
	debitRatio := flag.Float64("debit-ratio", 0.3, "fraction of events that are debits")
	flag.Parse()

	publisher := kafkaevents.NewPublisher(strings.Split(*brokers, ","), *topic)
	defer publisher.Close()

	ctx := context.Background()

	for i := 0; i < *count; i++ {
		accountID := fmt.Sprintf("ACC-%03d", rand.Intn(*accounts)+1)

		entryType := models.EntryTypeCredit
		if rand.Float64() < *debitRatio {
			entryType = models.EntryTypeDebit
		}

		// Amounts between 1.00 and 500.99
		amount := decimal.New(int64(rand.Intn(50000)+100), -2)

		event := models.TransactionEvent{
			EventID:   uuid.New().String(),
			AccountID: accountID,
			Type:      string(entryType),
			Amount:    amount,
			Timestamp: models.EventTime{Time: time.Now().UTC()},
		}

		if err := publisher.Publish(ctx, event.AccountID, event); err != nil {
			log.Fatalf("publishing event %s: %v", event.EventID, err)
		}
		log.Printf("published %s %s %s to %s", event.EventID, event.Type, amount, *topic)
	}
}
