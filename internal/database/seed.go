package database

import (
	"encoding/json"
	"fmt"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"

	"gorm.io/gorm"
)

type SeedReport struct {
	CreatedZones int
	Noop         bool
}

// demo zones around Lyon: a city ring and an overlapping suburban ring for
// the same farmer so overlapping-zone quotes can be exercised end to end.
var seedZones = []struct {
	profileID string
	name      string
	baseFee   float64
	ring      [][2]float64
}{
	{
		profileID: "farmer-demo-1",
		name:      "Lyon centre",
		baseFee:   2.50,
		ring:      [][2]float64{{4.79, 45.71}, {4.91, 45.71}, {4.91, 45.80}, {4.79, 45.80}, {4.79, 45.71}},
	},
	{
		profileID: "farmer-demo-1",
		name:      "Grand Lyon",
		baseFee:   4.00,
		ring:      [][2]float64{{4.70, 45.65}, {5.00, 45.65}, {5.00, 45.86}, {4.70, 45.86}, {4.70, 45.65}},
	},
	{
		profileID: "farmer-demo-2",
		name:      "Monts du Lyonnais",
		baseFee:   3.00,
		ring:      [][2]float64{{4.45, 45.60}, {4.70, 45.60}, {4.70, 45.78}, {4.45, 45.78}, {4.45, 45.60}},
	},
}

// SeedSync inserts the demo delivery zones, skipping any that already exist
// for the same profile and name. Safe to run repeatedly.
func SeedSync(db *gorm.DB) (SeedReport, error) {
	report := SeedReport{}
	for _, z := range seedZones {
		var count int64
		if err := db.Model(&domain.DeliveryZone{}).
			Where("profile_id = ? AND name = ?", z.profileID, z.name).
			Count(&count).Error; err != nil {
			return report, fmt.Errorf("check zone %q: %w", z.name, err)
		}
		if count > 0 {
			continue
		}
		boundary, err := json.Marshal(z.ring)
		if err != nil {
			return report, fmt.Errorf("encode zone %q boundary: %w", z.name, err)
		}
		zone := domain.DeliveryZone{
			ProfileID: z.profileID,
			Name:      z.name,
			BaseFee:   z.baseFee,
			IsActive:  true,
			Boundary:  string(boundary),
		}
		if err := db.Create(&zone).Error; err != nil {
			return report, fmt.Errorf("create zone %q: %w", z.name, err)
		}
		report.CreatedZones++
	}
	report.Noop = report.CreatedZones == 0
	return report, nil
}

// SeedPlan reports which demo zones SeedSync would create, without writing.
func SeedPlan(db *gorm.DB) ([]string, error) {
	var missing []string
	for _, z := range seedZones {
		var count int64
		if err := db.Model(&domain.DeliveryZone{}).
			Where("profile_id = ? AND name = ?", z.profileID, z.name).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check zone %q: %w", z.name, err)
		}
		if count == 0 {
			missing = append(missing, fmt.Sprintf("%s (%s)", z.name, z.profileID))
		}
	}
	return missing, nil
}
