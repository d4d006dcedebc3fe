package database

import (
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"

	"gorm.io/gorm"
)

// Models lists every schema-managed table, in dependency order.
func Models() []any {
	return []any{
		&domain.Order{},
		&domain.OrderItem{},
		&domain.DeliveryZone{},
		&domain.WebhookEvent{},
		&domain.IdempotencyRecord{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
