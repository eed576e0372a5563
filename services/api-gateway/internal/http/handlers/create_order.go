package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/geo"
	"delivery-order-system/shared/pkg/metrics"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/pricing"
)

// OrderBooker persists a priced order and its outbox event.
type OrderBooker interface {
	Book(ctx context.Context, o models.Order, vehicle string, quote pricing.Quote) error
}

type CreateOrderHandler struct {
	Orders  OrderBooker
	Catalog Catalog
	Log     zerolog.Logger
	// Now pins the booking time for pricing rules; nil means time.Now.
	Now func() time.Time
}

type createOrderReq struct {
	ServiceID string      `json:"service_id"`
	Pickup    models.Stop `json:"pickup"`
	Dropoff   models.Stop `json:"dropoff"`
	WeightKg  float64     `json:"weight_kg"`
}

type createOrderResp struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	TotalCents int           `json:"total_cents"`
	Quote      pricing.Quote `json:"quote"`
}

func validStop(s models.Stop) bool {
	return s.Address != "" && validCoords(s.Lat, s.Lng)
}

func (h *CreateOrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ServiceID == "" || req.WeightKg < 0 || !validStop(req.Pickup) || !validStop(req.Dropoff) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	svc, err := h.Catalog.Get(r.Context(), req.ServiceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}
		h.Log.Error().Err(err).Msg("get service failed")
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}
	if !svc.Active {
		http.Error(w, "service unavailable", http.StatusConflict)
		return
	}
	rules, err := h.Catalog.Rules(r.Context(), svc.ID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load pricing rules failed")
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	dist := geo.DistanceKm(req.Pickup.Lat, req.Pickup.Lng, req.Dropoff.Lat, req.Dropoff.Lng)
	quote := pricing.Calculate(rateCard(svc), rules, pricing.Input{
		DistanceKm: dist,
		WeightKg:   req.WeightKg,
		At:         now(),
	})

	order := models.Order{
		ID:         uuid.NewString(),
		CustomerID: claims.UserID,
		ServiceID:  svc.ID,
		Pickup:     req.Pickup,
		Dropoff:    req.Dropoff,
		WeightKg:   req.WeightKg,
		DistanceKm: dist,
		Status:     models.StatusPending,
		TotalCents: quote.TotalCents,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.Book(ctx, order, svc.VehicleType, quote); err != nil {
		h.Log.Error().Err(err).Msg("book order failed")
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	metrics.OrdersCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, createOrderResp{
		ID:         order.ID,
		Status:     string(models.StatusPending),
		TotalCents: quote.TotalCents,
		Quote:      quote,
	})
}
