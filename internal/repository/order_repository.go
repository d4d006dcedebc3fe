package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, page PageRequest) (PageResult[domain.Order], error)

	// The payment mutations write absolute target state so a redelivered
	// webhook event lands on the same final row.
	MarkPaidBySession(ctx context.Context, orderID, sessionID string) error
	SetPaymentIntentOutcome(ctx context.Context, orderID, intentID string, status domain.PaymentStatus) error
	SetInvoice(ctx context.Context, orderID, invoiceURL, archiveKey string) error
}

type GormOrderRepository struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "order", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "order", "create", "success")
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", strings.TrimSpace(id)).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "order", "find_by_id", "not_found")
			return nil, ErrOrderNotFound
		}
		observability.RecordRepositoryOperation(ctx, "order", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "order", "find_by_id", "success")
	return &order, nil
}

func (r *GormOrderRepository) List(ctx context.Context, page PageRequest) (PageResult[domain.Order], error) {
	page = page.Clamp()
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "order", "list", "error")
		return PageResult[domain.Order]{}, err
	}
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at desc").Order("id desc").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orders).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "order", "list", "error")
		return PageResult[domain.Order]{}, err
	}
	observability.RecordRepositoryOperation(ctx, "order", "list", "success")
	return newPageResult(orders, total, page), nil
}

func (r *GormOrderRepository) MarkPaidBySession(ctx context.Context, orderID, sessionID string) error {
	return r.updatePaymentFields(ctx, "mark_paid_by_session", orderID, map[string]any{
		"payment_status":    domain.PaymentStatusPaid,
		"stripe_session_id": sessionID,
	})
}

func (r *GormOrderRepository) SetPaymentIntentOutcome(ctx context.Context, orderID, intentID string, status domain.PaymentStatus) error {
	return r.updatePaymentFields(ctx, "set_intent_outcome", orderID, map[string]any{
		"payment_status":           status,
		"stripe_payment_intent_id": intentID,
	})
}

func (r *GormOrderRepository) SetInvoice(ctx context.Context, orderID, invoiceURL, archiveKey string) error {
	fields := map[string]any{"invoice_url": invoiceURL}
	if archiveKey != "" {
		fields["invoice_archive_key"] = archiveKey
	}
	return r.updatePaymentFields(ctx, "set_invoice", orderID, fields)
}

func (r *GormOrderRepository) updatePaymentFields(ctx context.Context, op, orderID string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", orderID).Updates(fields)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "order", op, "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "order", op, "not_found")
		return ErrOrderNotFound
	}
	observability.RecordRepositoryOperation(ctx, "order", op, "success")
	return nil
}
