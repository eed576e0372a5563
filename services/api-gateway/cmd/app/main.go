package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httpx "delivery-order-system/services/api-gateway/internal/http"
	"delivery-order-system/services/api-gateway/internal/http/handlers"
	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/cache"
	"delivery-order-system/shared/pkg/config"
	"delivery-order-system/shared/pkg/logger"
	"delivery-order-system/shared/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("api-gateway", cfg.Common.LogLevel)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()

	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	redis := cache.New(cfg.Redis.Addr)
	defer func() { _ = redis.Close() }()
	if err := redis.Ping(ctxDB); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, cache and rate limiting degraded")
	}

	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)

	usersRepo := &repo.UsersPG{DB: db}
	servicesRepo := &repo.ServicesPG{DB: db}
	ordersRepo := &repo.OrdersPG{DB: db, Outbox: &repo.OutboxPG{}}
	statusRepo := &repo.OrdersCached{PG: ordersRepo, Redis: redis, TTL: 30 * time.Second}

	h := &httpx.Handlers{
		Health: handlers.Health,
		Signup: (&handlers.SignupHandler{Users: usersRepo, Tokens: tokens, Log: log}).ServeHTTP,
		Login:  (&handlers.LoginHandler{Users: usersRepo, Tokens: tokens, Log: log}).ServeHTTP,
		GetMe:  (&handlers.GetMeHandler{Users: usersRepo}).ServeHTTP,
		UpdateLocation: auth.RequireRole(models.RoleTransporter,
			(&handlers.UpdateLocationHandler{Users: usersRepo, Cache: redis, Log: log}).ServeHTTP),
		ListServices: (&handlers.ListServicesHandler{Catalog: servicesRepo, Log: log}).ServeHTTP,
		Quote:        (&handlers.QuoteHandler{Catalog: servicesRepo, Log: log}).ServeHTTP,
		CreateOrder: auth.RequireRole(models.RoleCustomer,
			(&handlers.CreateOrderHandler{Orders: ordersRepo, Catalog: servicesRepo, Log: log}).ServeHTTP),
		GetOrder:   (&handlers.GetOrderHandler{Orders: ordersRepo, Status: statusRepo, Log: log}).ServeHTTP,
		ListOrders: (&handlers.ListOrdersHandler{Orders: ordersRepo, Log: log}).ServeHTTP,
		UpdateStatus: auth.RequireRole(models.RoleTransporter,
			(&handlers.UpdateStatusHandler{Orders: ordersRepo, Log: log}).ServeHTTP),
		CancelOrder: auth.RequireRole(models.RoleCustomer,
			(&handlers.CancelOrderHandler{Orders: ordersRepo, Log: log}).ServeHTTP),
	}

	router := httpx.NewRouter(h, httpx.Middleware{
		Auth:      tokens.Middleware,
		RateLimit: httpx.RateLimit(redis, cfg.RateLimit.PerMinute),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
