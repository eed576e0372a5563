package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

type OrderLister interface {
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByTransporter(ctx context.Context, transporterID string) ([]models.Order, error)
}

type ListOrdersHandler struct {
	Orders OrderLister
	Log    zerolog.Logger
}

func (h *ListOrdersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var (
		orders []models.Order
		err    error
	)
	if claims.Role == models.RoleTransporter {
		orders, err = h.Orders.ListByTransporter(r.Context(), claims.UserID)
	} else {
		orders, err = h.Orders.ListByCustomer(r.Context(), claims.UserID)
	}
	if err != nil {
		h.Log.Error().Err(err).Str("user_id", claims.UserID).Msg("list orders failed")
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
