package domain

import "time"

// DeliveryZone is a farmer-defined polygon within which flat-rate local
// delivery is offered. Read-only from the shipping aggregator's
// perspective; boundaries are managed by the back-office.
//
// Boundary holds a JSON-encoded closed ring of [lng, lat] pairs.
type DeliveryZone struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID string    `gorm:"size:36;not null;index" json:"profile_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	BaseFee   float64   `gorm:"not null" json:"base_fee"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	Boundary  string    `gorm:"type:text;not null" json:"boundary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
