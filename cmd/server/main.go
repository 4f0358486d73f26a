package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/shadow-ledger-service/internal/config"
	kafkaevents "github.com/sheikh-saqib/shadow-ledger-service/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/shadow-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/query"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage/memory"
	"github.com/sheikh-saqib/shadow-ledger-service/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing ledger store", zap.Error(err))
	}
	defer cleanup()

	ledgerService := ledger.NewLedger(store)
	queryService := query.NewService(store)

	deadLetter := kafkaevents.NewPublisher(cfg.KafkaBrokers, cfg.DeadLetterTopic)
	defer deadLetter.Close()

	rawConsumer := kafkaevents.NewConsumer(
		cfg.KafkaBrokers, cfg.RawTopic, cfg.GroupID, false, ledgerService, deadLetter, logger)
	correctionsConsumer := kafkaevents.NewConsumer(
		cfg.KafkaBrokers, cfg.CorrectionsTopic, cfg.GroupID, true, ledgerService, deadLetter, logger)

	consumerErrs := make(chan error, 2)
	go func() { consumerErrs <- rawConsumer.Run(ctx) }()
	go func() { consumerErrs <- correctionsConsumer.Run(ctx) }()

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/accounts/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			http.Error(w, "account_id is a mandatory field", http.StatusBadRequest)
			return
		}

		balance, err := queryService.Balance(r.Context(), accountID)
		if err != nil {
			logger.Error("balance query failed", zap.String("account_id", accountID), zap.Error(err))
			http.Error(w, "balance query failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(balance)
	})

	mux.HandleFunc("/accounts/running-balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			http.Error(w, "account_id is a mandatory field", http.StatusBadRequest)
			return
		}

		timeline, err := queryService.RunningBalance(r.Context(), accountID)
		if err != nil {
			logger.Error("running balance query failed", zap.String("account_id", accountID), zap.Error(err))
			http.Error(w, "running balance query failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(timeline)
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-consumerErrs:
		if err != nil {
			logger.Error("consumer failed", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newStore picks Postgres when a database URL is configured, otherwise the
// in-memory store for local runs.
func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (interfaces.LedgerStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no DATABASE_URL set, using in-memory ledger store")
		return memory.NewMemoryLedgerStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := postgres.NewPostgresLedgerStore(db)
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.Info("connected to postgres ledger store")
	return store, func() { db.Close() }, nil
}
