package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/cache"
	"delivery-order-system/shared/pkg/models"
)

type UserGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type GetMeHandler struct {
	Users UserGetter
}

func (h *GetMeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	u, err := h.Users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type LocationUpdater interface {
	UpdateLocation(ctx context.Context, userID string, lat, lng float64, available bool) error
}

// UpdateLocationHandler records a transporter's position and availability
// so dispatch can find them; the position is also cached for live reads.
type UpdateLocationHandler struct {
	Users LocationUpdater
	Cache *cache.Redis
	Log   zerolog.Logger
}

type locationReq struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Available bool    `json:"available"`
}

func validCoords(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (h *UpdateLocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req locationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !validCoords(req.Lat, req.Lng) {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	if err := h.Users.UpdateLocation(r.Context(), claims.UserID, req.Lat, req.Lng, req.Available); err != nil {
		h.Log.Error().Err(err).Str("user_id", claims.UserID).Msg("update location failed")
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	if b, err := json.Marshal(req); err == nil {
		_ = h.Cache.SetBytes(r.Context(), cache.TransporterLocationKey(claims.UserID), b, 5*time.Minute)
	}

	w.WriteHeader(http.StatusNoContent)
}
