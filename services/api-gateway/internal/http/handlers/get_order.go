package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

type OrderGetter interface {
	Get(ctx context.Context, orderID string) (models.Order, error)
}

type StatusGetter interface {
	GetStatus(ctx context.Context, orderID string) (string, error)
}

type GetOrderHandler struct {
	Orders OrderGetter
	Status StatusGetter
	Log    zerolog.Logger
}

func (h *GetOrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	claims, _ := auth.FromContext(r.Context())

	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error().Err(err).Str("order_id", id).Msg("get order failed")
		http.Error(w, "failed to get order", http.StatusInternalServerError)
		return
	}
	if claims.UserID != o.CustomerID && claims.UserID != o.TransporterID {
		// Do not reveal whether the order exists.
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	// The projector may be ahead of the row we just read.
	if s, err := h.Status.GetStatus(r.Context(), id); err == nil && s != "" {
		o.Status = models.OrderStatus(s)
	}

	writeJSON(w, http.StatusOK, o)
}
