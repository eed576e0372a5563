package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/services/dispatch-service/internal/repo"
	"delivery-order-system/services/dispatch-service/internal/worker"
	"delivery-order-system/shared/pkg/config"
	"delivery-order-system/shared/pkg/logger"
	"delivery-order-system/shared/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("dispatch-service", cfg.Common.LogLevel)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()
	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}

	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     "dispatch.q",
		BindKeys: []string{"orders.created", "dispatch.release_requested"},
		DLQKey:   "dispatch.dlq",
		Prefetch: 20,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare dispatch topology failed")
	}

	_ = rabbit.DeclareRetryQueue(rc.Ch, "dispatch.retry.orders.created.5s", "dispatch.orders.created", "orders.created", 5000)
	_ = rabbit.DeclareRetryQueue(rc.Ch, "dispatch.retry.release.5s", "dispatch.dispatch.release_requested", "dispatch.release_requested", 5000)

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume("dispatch.q", 20)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := &worker.Consumer{
		Log:            log,
		Repo:           &repo.TransportersPG{DB: db},
		EventsPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents),
		RetryPub:       rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:         rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		Service:        "dispatch",
		MaxAttempts:    5,
		DLQKey:         "dispatch.dlq",
		CandidateLimit: cfg.Dispatch.CandidateLimit,
		MaxRadiusKm:    cfg.Dispatch.MaxRadiusKm,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, deliveries)

	log.Info().Msg("dispatch worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown")
	cancel()
}
