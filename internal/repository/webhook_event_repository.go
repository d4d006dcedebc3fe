package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
)

var ErrWebhookEventDuplicate = errors.New("webhook event already recorded")

type WebhookEventRepository interface {
	// Record inserts the delivery; ErrWebhookEventDuplicate when the
	// provider event id was seen before and already processed.
	Record(ctx context.Context, event *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, provider, providerEventID string, processingErr error) error
}

type GormWebhookEventRepository struct{ db *gorm.DB }

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

func (r *GormWebhookEventRepository) Record(ctx context.Context, event *domain.WebhookEvent) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(event)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "webhook_event", "record", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		var existing domain.WebhookEvent
		err := r.db.WithContext(ctx).
			Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
			First(&existing).Error
		if err == nil && existing.ProcessedAt != nil && existing.ProcessingError == "" {
			observability.RecordRepositoryOperation(ctx, "webhook_event", "record", "duplicate")
			return ErrWebhookEventDuplicate
		}
		// A prior delivery that never completed: let the caller retry it.
		observability.RecordRepositoryOperation(ctx, "webhook_event", "record", "retry")
		return nil
	}
	observability.RecordRepositoryOperation(ctx, "webhook_event", "record", "success")
	return nil
}

func (r *GormWebhookEventRepository) MarkProcessed(ctx context.Context, provider, providerEventID string, processingErr error) error {
	fields := map[string]any{
		"processed_at":     time.Now().UTC(),
		"processing_error": "",
	}
	if processingErr != nil {
		fields["processing_error"] = processingErr.Error()
	}
	res := r.db.WithContext(ctx).Model(&domain.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Updates(fields)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "webhook_event", "mark_processed", "error")
		return res.Error
	}
	observability.RecordRepositoryOperation(ctx, "webhook_event", "mark_processed", "success")
	return nil
}
