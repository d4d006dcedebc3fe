package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/response"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
)

type DeliveryZoneHandler struct {
	zones repository.DeliveryZoneRepository
}

func NewDeliveryZoneHandler(zones repository.DeliveryZoneRepository) *DeliveryZoneHandler {
	return &DeliveryZoneHandler{zones: zones}
}

func (h *DeliveryZoneHandler) ListByFarmer(w http.ResponseWriter, r *http.Request) {
	farmerID := strings.TrimSpace(chi.URLParam(r, "id"))
	if farmerID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "farmer id is required", nil)
		return
	}
	zones, err := h.zones.ListByProfile(r.Context(), farmerID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list delivery zones", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": zones})
}
