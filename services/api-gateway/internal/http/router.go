package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delivery-order-system/shared/pkg/metrics"
)

type Handlers struct {
	Health         http.HandlerFunc
	Signup         http.HandlerFunc
	Login          http.HandlerFunc
	GetMe          http.HandlerFunc
	UpdateLocation http.HandlerFunc
	ListServices   http.HandlerFunc
	Quote          http.HandlerFunc
	CreateOrder    http.HandlerFunc
	GetOrder       http.HandlerFunc
	ListOrders     http.HandlerFunc
	UpdateStatus   http.HandlerFunc
	CancelOrder    http.HandlerFunc
}

type Middleware struct {
	Auth      func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

func NewRouter(h *Handlers, mw Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("api-gateway"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit)
			r.Post("/auth/signup", h.Signup)
			r.Post("/auth/login", h.Login)
		})

		r.Get("/services", h.ListServices)
		r.Post("/orders/quote", h.Quote)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth)
			r.Get("/users/me", h.GetMe)
			r.Patch("/users/me/location", h.UpdateLocation)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Patch("/orders/{id}/status", h.UpdateStatus)
			r.Post("/orders/{id}/cancel", h.CancelOrder)
		})
	})
	return r
}
