package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
)

var (
	ErrOrderNoItems        = errors.New("order needs at least one item")
	ErrOrderInvalidTotal   = errors.New("order total must match item and delivery amounts")
	ErrOrderMissingDeliver = errors.New("order needs a delivery method")
)

type OrderItemInput struct {
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerEmail       string           `json:"customer_email"`
	Items               []OrderItemInput `json:"items"`
	DeliveryMethod      string           `json:"delivery_method"`
	DeliveryFee         float64          `json:"delivery_fee"`
	DeliveryDescription string           `json:"delivery_description"`
}

// OrderService owns order creation. The chosen shipping option's id, fee
// and description are snapshotted onto the order so the quoted price at
// checkout is the price on the record, even if zones or rate tables move.
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderNoItems
	}
	if strings.TrimSpace(input.DeliveryMethod) == "" {
		return nil, ErrOrderMissingDeliver
	}

	var itemsTotal float64
	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 || strings.TrimSpace(item.ProductName) == "" {
			return nil, ErrOrderInvalidTotal
		}
		itemsTotal += item.UnitPrice * float64(item.Quantity)
		items = append(items, domain.OrderItem{
			ProductName: strings.TrimSpace(item.ProductName),
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	if input.DeliveryFee < 0 {
		return nil, ErrOrderInvalidTotal
	}

	order := &domain.Order{
		ID:                  uuid.NewString(),
		CustomerEmail:       strings.TrimSpace(strings.ToLower(input.CustomerEmail)),
		TotalAmount:         roundCents(itemsTotal + input.DeliveryFee),
		PaymentStatus:       domain.PaymentStatusPending,
		DeliveryMethod:      strings.TrimSpace(input.DeliveryMethod),
		DeliveryFee:         input.DeliveryFee,
		DeliveryDescription: strings.TrimSpace(input.DeliveryDescription),
		Items:               items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, page repository.PageRequest) (repository.PageResult[domain.Order], error) {
	return s.orders.List(ctx, page)
}
