package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/services/payment-service/internal/provider"
	"delivery-order-system/services/payment-service/internal/repo"
	"delivery-order-system/services/payment-service/internal/resilience"
	"delivery-order-system/services/payment-service/internal/worker"
	"delivery-order-system/shared/pkg/config"
	"delivery-order-system/shared/pkg/logger"
	"delivery-order-system/shared/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("payment-service", cfg.Common.LogLevel)

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
		Name:     "payment.q",
		BindKeys: []string{"dispatch.assigned"},
		DLQKey:   "payment.dlq",
		Prefetch: 20,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare payment topology failed")
	}

	_ = rabbit.DeclareRetryQueue(rc.Ch, "payment.retry.dispatch.assigned.5s", "payment.dispatch.assigned", "dispatch.assigned", 5000)

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume("payment.q", 20)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := &worker.Consumer{
		Log:         log,
		Repo:        &repo.PaymentsPG{DB: db},
		Provider:    provider.NewSimulated(cfg.Payment.FailRate, time.Now().UnixNano()),
		Breaker:     resilience.NewCircuitBreaker(5, 30*time.Second, log),
		EventsPub:   rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents),
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		Service:     "payment",
		MaxAttempts: 5,
		DLQKey:      "payment.dlq",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, deliveries)

	log.Info().Msg("payment worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown")
	cancel()
}
