package service

import (
	"context"
	"log/slog"
)

type OrderConfirmation struct {
	OrderID       string
	CustomerEmail string
	TotalAmount   float64
}

// OrderConfirmationNotifier delivers the payment confirmation to the
// buyer. Invocation is best-effort: a failure is logged and must never
// fail the webhook acknowledgement.
type OrderConfirmationNotifier interface {
	SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error
}

type DevOrderConfirmationNotifier struct {
	logger *slog.Logger
}

func NewDevOrderConfirmationNotifier(logger *slog.Logger) *DevOrderConfirmationNotifier {
	return &DevOrderConfirmationNotifier{logger: logger}
}

func (n *DevOrderConfirmationNotifier) SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error {
	n.logger.InfoContext(ctx, "order confirmation issued",
		"order_id", confirmation.OrderID,
		"email", confirmation.CustomerEmail,
		"total_amount", confirmation.TotalAmount,
	)
	return nil
}
