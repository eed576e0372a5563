package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delivery-order-system/shared/pkg/metrics"
)

type Handlers struct {
	Health      http.HandlerFunc
	GetRoute    http.HandlerFunc
	GetMessages http.HandlerFunc
	ServeWS     http.HandlerFunc
}

// NewRouter wires the read endpoints behind auth; the socket endpoint
// authenticates itself via the token query param.
func NewRouter(h *Handlers, authMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("tracking-service"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Get("/ws/orders/{id}", h.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/orders/{id}/route", h.GetRoute)
			r.Get("/orders/{id}/messages", h.GetMessages)
		})
	})
	return r
}
