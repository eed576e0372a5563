package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httpx "delivery-order-system/services/tracking-service/internal/http"
	"delivery-order-system/services/tracking-service/internal/repo"
	"delivery-order-system/services/tracking-service/internal/worker"
	"delivery-order-system/services/tracking-service/internal/ws"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/cache"
	"delivery-order-system/shared/pkg/config"
	"delivery-order-system/shared/pkg/logger"
	"delivery-order-system/shared/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("tracking-service", cfg.Common.LogLevel)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()
	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	rds := cache.New(cfg.Redis.Addr)
	defer func() { _ = rds.Close() }()
	if err := rds.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, continuing without cache")
	}

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}

	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     "tracking.q",
		BindKeys: []string{"#"},
		DLQKey:   "tracking.dlq",
		Prefetch: 50,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare tracking topology failed")
	}

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume("tracking.q", 50)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	store := &repo.Store{DB: db}
	hub := ws.NewHub()
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	socket := ws.NewServer(hub, tokens, store, rds, log)

	w := &worker.Consumer{
		Log:         log,
		Store:       store,
		Cache:       rds,
		Hub:         hub,
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		Service:     "tracking",
		MaxAttempts: 0,
		DLQKey:      "tracking.dlq",
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(appCtx, deliveries)

	srv := &http.Server{
		Addr: cfg.TrackingHTTP.Addr,
		Handler: httpx.NewRouter(&httpx.Handlers{
			Health:      httpx.Health,
			GetRoute:    httpx.GetRouteHandler(store),
			GetMessages: httpx.GetMessagesHandler(store),
			ServeWS:     socket.Handle,
		}, tokens.Middleware),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Msg("tracking-service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
