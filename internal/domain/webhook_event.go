package domain

import "time"

// WebhookEvent stores provider webhook deliveries with deduplication
// metadata. The envelope itself is ephemeral; only the event id, type and
// processing outcome are kept so redelivered events can short-circuit.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;uniqueIndex:idx_webhook_provider_event" json:"provider_event_id"`
	EventType       string     `gorm:"size:100;not null;index" json:"event_type"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
