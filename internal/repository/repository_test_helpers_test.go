package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Order{},
		&domain.OrderItem{},
		&domain.DeliveryZone{},
		&domain.WebhookEvent{},
		&domain.IdempotencyRecord{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func mustBoundary(t *testing.T, ring [][2]float64) string {
	t.Helper()
	raw, err := json.Marshal(ring)
	if err != nil {
		t.Fatalf("marshal boundary: %v", err)
	}
	return string(raw)
}
