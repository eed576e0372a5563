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

type OrderProgresser interface {
	Progress(ctx context.Context, orderID, transporterID string, to models.OrderStatus) error
}

// UpdateStatusHandler lets the assigned transporter move an order through
// picked_up, in_transit and delivered.
type UpdateStatusHandler struct {
	Orders OrderProgresser
	Log    zerolog.Logger
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *UpdateStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	claims, _ := auth.FromContext(r.Context())

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	to := models.OrderStatus(req.Status)
	switch to {
	case models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered:
	default:
		http.Error(w, "status must be picked_up, in_transit or delivered", http.StatusBadRequest)
		return
	}

	err := h.Orders.Progress(r.Context(), id, claims.UserID, to)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrNotAssigned):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case errors.Is(err, repo.ErrIllegalTransition):
		http.Error(w, "illegal status transition", http.StatusConflict)
		return
	default:
		h.Log.Error().Err(err).Str("order_id", id).Str("status", req.Status).Msg("progress order failed")
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
