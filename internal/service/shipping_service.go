package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
)

const (
	CarrierLocal      = "local"
	CarrierColissimo  = "colissimo"
	CarrierChronopost = "chronopost"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ShippingOption struct {
	ID            string  `json:"id"`
	Carrier       string  `json:"carrier"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Description   string  `json:"description"`
	EstimatedDays int     `json:"estimated_days"`
}

// published national rate tables: price = base + weight_kg * per_kg
type carrierRate struct {
	id          string
	carrier     string
	name        string
	baseFee     float64
	perKgFee    float64
	days        int
	description string
}

var nationalRates = []carrierRate{
	{
		id:          "colissimo-standard",
		carrier:     CarrierColissimo,
		name:        "Colissimo",
		baseFee:     4.95,
		perKgFee:    1.50,
		days:        2,
		description: "Livraison standard à domicile sous 48h",
	},
	{
		id:          "chronopost-express",
		carrier:     CarrierChronopost,
		name:        "Chronopost Express",
		baseFee:     8.50,
		perKgFee:    2.50,
		days:        1,
		description: "Livraison express à domicile avant 13h",
	},
}

// RateAggregator merges farmer-local geofenced delivery offers with the
// national carrier quotes into one list. National quotes are always
// computable; a failing zone lookup degrades to national-only instead of
// failing the request.
type RateAggregator struct {
	zones  repository.DeliveryZoneRepository
	logger *slog.Logger
}

func NewRateAggregator(zones repository.DeliveryZoneRepository, logger *slog.Logger) *RateAggregator {
	return &RateAggregator{zones: zones, logger: logger}
}

// Quote returns the shipping options for a destination and cart weight.
// Local options sort first; the two national options are always present.
func (a *RateAggregator) Quote(ctx context.Context, farmerID string, destination Coordinate, weightKG float64) []ShippingOption {
	options := make([]ShippingOption, 0, len(nationalRates)+1)

	zones, err := a.zones.FindContaining(ctx, farmerID, destination.Lat, destination.Lng)
	if err != nil {
		a.logger.WarnContext(ctx, "delivery zone lookup failed, degrading to national rates",
			"farmer_id", farmerID, "error", err)
		observability.RecordShippingQuote(ctx, "degraded")
	} else {
		for _, zone := range zones {
			options = append(options, ShippingOption{
				ID:            fmt.Sprintf("local-%d", zone.ID),
				Carrier:       CarrierLocal,
				Name:          zone.Name,
				Price:         roundCents(zone.BaseFee),
				Description:   fmt.Sprintf("Livraison locale par le producteur (%s)", zone.Name),
				EstimatedDays: 1,
			})
		}
		observability.RecordShippingQuote(ctx, "success")
	}

	for _, rate := range nationalRates {
		options = append(options, ShippingOption{
			ID:            rate.id,
			Carrier:       rate.carrier,
			Name:          rate.name,
			Price:         roundCents(rate.baseFee + weightKG*rate.perKgFee),
			Description:   rate.description,
			EstimatedDays: rate.days,
		})
	}
	return options
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
