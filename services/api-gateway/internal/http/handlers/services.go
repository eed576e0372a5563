package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"delivery-order-system/shared/pkg/models"
)

type CatalogLister interface {
	List(ctx context.Context) ([]models.Service, error)
}

type ListServicesHandler struct {
	Catalog CatalogLister
	Log     zerolog.Logger
}

func (h *ListServicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	services, err := h.Catalog.List(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("list services failed")
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}
