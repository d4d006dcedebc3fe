package service

import (
	"context"
	"errors"
	"testing"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
)

type fakeZoneRepo struct {
	zones []domain.DeliveryZone
	err   error
}

func (r *fakeZoneRepo) FindContaining(context.Context, string, float64, float64) ([]domain.DeliveryZone, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.zones, nil
}

func (r *fakeZoneRepo) ListByProfile(context.Context, string) ([]domain.DeliveryZone, error) {
	return r.zones, nil
}

func TestQuoteMergesLocalAndNationalOptions(t *testing.T) {
	zones := &fakeZoneRepo{zones: []domain.DeliveryZone{
		{ID: 7, Name: "Zone Lyon Centre", BaseFee: 2.50},
	}}
	agg := NewRateAggregator(zones, testLogger())

	options := agg.Quote(context.Background(), "farmer-1", Coordinate{Lat: 45.76, Lng: 4.83}, 2)
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}

	local := options[0]
	if local.Carrier != CarrierLocal || local.ID != "local-7" {
		t.Fatalf("expected local option first, got %+v", local)
	}
	if local.Price != 2.50 || local.EstimatedDays != 1 {
		t.Fatalf("unexpected local pricing: %+v", local)
	}

	if options[1].ID != "colissimo-standard" || options[1].Price != 7.95 || options[1].EstimatedDays != 2 {
		t.Fatalf("unexpected colissimo quote: %+v", options[1])
	}
	if options[2].ID != "chronopost-express" || options[2].Price != 13.50 || options[2].EstimatedDays != 1 {
		t.Fatalf("unexpected chronopost quote: %+v", options[2])
	}
}

func TestQuoteDegradesToNationalOnZoneFailure(t *testing.T) {
	zones := &fakeZoneRepo{err: errors.New("database unavailable")}
	agg := NewRateAggregator(zones, testLogger())

	options := agg.Quote(context.Background(), "farmer-1", Coordinate{Lat: 45.76, Lng: 4.83}, 2)
	if len(options) != 2 {
		t.Fatalf("expected national-only fallback, got %d options", len(options))
	}
	if options[0].Price != 7.95 || options[1].Price != 13.50 {
		t.Fatalf("unexpected fallback prices: %+v", options)
	}
	for _, opt := range options {
		if opt.Carrier == CarrierLocal {
			t.Fatalf("local option present in degraded quote: %+v", opt)
		}
	}
}

func TestQuoteZeroWeightUsesBaseFees(t *testing.T) {
	agg := NewRateAggregator(&fakeZoneRepo{}, testLogger())

	options := agg.Quote(context.Background(), "farmer-1", Coordinate{}, 0)
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0].Price != 4.95 || options[1].Price != 8.50 {
		t.Fatalf("unexpected base prices: %+v", options)
	}
}

func TestQuoteMultipleZonesAllListed(t *testing.T) {
	zones := &fakeZoneRepo{zones: []domain.DeliveryZone{
		{ID: 1, Name: "Centre", BaseFee: 2.00},
		{ID: 2, Name: "Grand Lyon", BaseFee: 3.50},
	}}
	agg := NewRateAggregator(zones, testLogger())

	options := agg.Quote(context.Background(), "farmer-1", Coordinate{Lat: 45.76, Lng: 4.83}, 1)
	if len(options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(options))
	}
	if options[0].Price != 2.00 || options[1].Price != 3.50 {
		t.Fatalf("expected zones ordered by repository, got %+v", options[:2])
	}
}

func TestQuoteRoundsFractionalWeightPrices(t *testing.T) {
	agg := NewRateAggregator(&fakeZoneRepo{}, testLogger())

	options := agg.Quote(context.Background(), "farmer-1", Coordinate{}, 1.333)
	if options[0].Price != 6.95 {
		t.Fatalf("expected 6.95 for colissimo, got %v", options[0].Price)
	}
	if options[1].Price != 11.83 {
		t.Fatalf("expected 11.83 for chronopost, got %v", options[1].Price)
	}
}
