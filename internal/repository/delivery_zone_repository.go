package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gorm.io/gorm"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
)

type DeliveryZoneRepository interface {
	// FindContaining returns the farmer's active zones whose boundary
	// contains the destination point.
	FindContaining(ctx context.Context, profileID string, lat, lng float64) ([]domain.DeliveryZone, error)
	ListByProfile(ctx context.Context, profileID string) ([]domain.DeliveryZone, error)
}

type GormDeliveryZoneRepository struct{ db *gorm.DB }

func NewDeliveryZoneRepository(db *gorm.DB) DeliveryZoneRepository {
	return &GormDeliveryZoneRepository{db: db}
}

func (r *GormDeliveryZoneRepository) FindContaining(ctx context.Context, profileID string, lat, lng float64) ([]domain.DeliveryZone, error) {
	var zones []domain.DeliveryZone
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Order("base_fee asc").
		Find(&zones).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "delivery_zone", "find_containing", "error")
		return nil, err
	}

	point := orb.Point{lng, lat}
	matched := zones[:0]
	for _, zone := range zones {
		ring, err := decodeBoundary(zone.Boundary)
		if err != nil {
			observability.RecordRepositoryOperation(ctx, "delivery_zone", "find_containing", "error")
			return nil, fmt.Errorf("zone %d boundary: %w", zone.ID, err)
		}
		if planar.RingContains(ring, point) {
			matched = append(matched, zone)
		}
	}
	observability.RecordRepositoryOperation(ctx, "delivery_zone", "find_containing", "success")
	return matched, nil
}

func (r *GormDeliveryZoneRepository) ListByProfile(ctx context.Context, profileID string) ([]domain.DeliveryZone, error) {
	var zones []domain.DeliveryZone
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("name asc").
		Find(&zones).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "delivery_zone", "list_by_profile", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "delivery_zone", "list_by_profile", "success")
	return zones, nil
}

// decodeBoundary parses a JSON ring of [lng, lat] pairs and closes it if
// the stored geometry left the last point off.
func decodeBoundary(raw string) (orb.Ring, error) {
	var coords [][2]float64
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		return nil, err
	}
	if len(coords) < 3 {
		return nil, fmt.Errorf("ring needs at least 3 points, got %d", len(coords))
	}
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring, nil
}
