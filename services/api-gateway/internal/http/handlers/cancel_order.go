package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

type OrderCanceller interface {
	Cancel(ctx context.Context, orderID, customerID, reason string) error
}

type CancelOrderHandler struct {
	Orders OrderCanceller
	Log    zerolog.Logger
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *CancelOrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	claims, _ := auth.FromContext(r.Context())

	var req cancelReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	err := h.Orders.Cancel(r.Context(), id, claims.UserID, req.Reason)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrNotOwner):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrNotCancellable):
		http.Error(w, "order can no longer be cancelled", http.StatusConflict)
		return
	default:
		h.Log.Error().Err(err).Str("order_id", id).Msg("cancel order failed")
		http.Error(w, "failed to cancel order", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusCancelled)})
}
