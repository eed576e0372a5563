package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/geo"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/pricing"
)

type Catalog interface {
	Get(ctx context.Context, id string) (models.Service, error)
	Rules(ctx context.Context, serviceID string) ([]pricing.Rule, error)
}

type QuoteHandler struct {
	Catalog Catalog
	Log     zerolog.Logger
	Now     func() time.Time
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type quoteReq struct {
	ServiceID string  `json:"service_id"`
	Pickup    point   `json:"pickup"`
	Dropoff   point   `json:"dropoff"`
	WeightKg  float64 `json:"weight_kg"`
}

func (h *QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req quoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ServiceID == "" || req.WeightKg < 0 ||
		!validCoords(req.Pickup.Lat, req.Pickup.Lng) || !validCoords(req.Dropoff.Lat, req.Dropoff.Lng) {
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
		http.Error(w, "quote failed", http.StatusInternalServerError)
		return
	}
	if !svc.Active {
		http.Error(w, "service unavailable", http.StatusConflict)
		return
	}

	rules, err := h.Catalog.Rules(r.Context(), svc.ID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load pricing rules failed")
		http.Error(w, "quote failed", http.StatusInternalServerError)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	dist := geo.DistanceKm(req.Pickup.Lat, req.Pickup.Lng, req.Dropoff.Lat, req.Dropoff.Lng)
	q := pricing.Calculate(rateCard(svc), rules, pricing.Input{
		DistanceKm: dist,
		WeightKg:   req.WeightKg,
		At:         now(),
	})
	writeJSON(w, http.StatusOK, q)
}

func rateCard(s models.Service) pricing.RateCard {
	return pricing.RateCard{
		BaseFareCents: s.BaseFareCents,
		PerKmCents:    s.PerKmCents,
		PerKgCents:    s.PerKgCents,
		MinFareCents:  s.MinFareCents,
	}
}
