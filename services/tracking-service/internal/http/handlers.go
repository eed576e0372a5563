package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"delivery-order-system/services/tracking-service/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OrderHistory is what the read endpoints need from storage.
type OrderHistory interface {
	OrderParties(ctx context.Context, orderID string) (string, string, models.OrderStatus, error)
	Route(ctx context.Context, orderID string) ([]models.RoutePoint, error)
	Messages(ctx context.Context, orderID string) ([]models.ChatMessage, error)
}

// authorize resolves the order and hides it from users who are neither
// its customer nor its assigned transporter.
func authorize(w http.ResponseWriter, r *http.Request, store OrderHistory) (string, bool) {
	orderID := chi.URLParam(r, "id")
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}

	customerID, transporterID, _, err := store.OrderParties(r.Context(), orderID)
	if errors.Is(err, repo.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return "", false
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", false
	}
	if claims.UserID != customerID && claims.UserID != transporterID {
		http.Error(w, "order not found", http.StatusNotFound)
		return "", false
	}
	return orderID, true
}

// GetRouteHandler returns the persisted track for an order.
func GetRouteHandler(store OrderHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := authorize(w, r, store)
		if !ok {
			return
		}
		points, err := store.Route(r.Context(), orderID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "points": points})
	}
}

// GetMessagesHandler returns the chat history for an order.
func GetMessagesHandler(store OrderHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := authorize(w, r, store)
		if !ok {
			return
		}
		msgs, err := store.Messages(r.Context(), orderID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "messages": msgs})
	}
}
