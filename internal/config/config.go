package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries everything the binaries need from the environment. An
// empty DatabaseURL selects the in-memory store, which is only meant for
// local runs and tests.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	RawTopic         string   `env:"KAFKA_RAW_TOPIC" envDefault:"transactions.raw"`
	CorrectionsTopic string   `env:"KAFKA_CORRECTIONS_TOPIC" envDefault:"transactions.corrections"`
	DeadLetterTopic  string   `env:"KAFKA_DEAD_LETTER_TOPIC" envDefault:"transactions.dead-letter"`
	GroupID          string   `env:"KAFKA_GROUP_ID" envDefault:"shadow-ledger-group"`

	Development bool `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
