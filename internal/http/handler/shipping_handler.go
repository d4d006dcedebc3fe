package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/response"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

type ShippingHandler struct {
	rates *service.RateAggregator
}

func NewShippingHandler(rates *service.RateAggregator) *ShippingHandler {
	return &ShippingHandler{rates: rates}
}

func (h *ShippingHandler) QuoteRates(w http.ResponseWriter, r *http.Request) {
	// pointer fields distinguish "absent" from a legitimate zero value
	var body struct {
		FarmerID    string              `json:"farmer_id"`
		Destination *service.Coordinate `json:"destination"`
		Cart        *struct {
			WeightKG *float64 `json:"weight_kg"`
		} `json:"cart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(body.FarmerID) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "farmer_id is required", nil)
		return
	}
	if body.Destination == nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "destination is required", nil)
		return
	}
	if body.Destination.Lat < -90 || body.Destination.Lat > 90 || body.Destination.Lng < -180 || body.Destination.Lng > 180 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "destination out of range", nil)
		return
	}
	if body.Cart == nil || body.Cart.WeightKG == nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "cart.weight_kg is required", nil)
		return
	}
	if *body.Cart.WeightKG < 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "cart.weight_kg must be non-negative", nil)
		return
	}

	options := h.rates.Quote(r.Context(), strings.TrimSpace(body.FarmerID), *body.Destination, *body.Cart.WeightKG)
	response.JSON(w, r, http.StatusOK, map[string]any{"shipping_options": options})
}
