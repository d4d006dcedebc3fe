package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/messaging"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
)

const webhookProvider = "stripe"

// StripeEvent is the decoded webhook envelope. Only the discriminator and
// the payload object are read; the envelope is not persisted verbatim.
type StripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID               string `json:"id"`
	PaymentIntent    string `json:"payment_intent"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
}

type paymentIntentObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// OrderPaymentEvent is published to the order events topic after a
// transition is applied.
type OrderPaymentEvent struct {
	OrderID       string               `json:"order_id"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	SourceEvent   string               `json:"source_event"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// WebhookProcessor applies idempotent payment-state transitions to orders.
// Every transition writes absolute target state, so redelivery of the same
// event reproduces the same final row. Event ordering is not enforced:
// a late failure event can downgrade a paid order, matching the provider
// contract the checkout flow was built against.
type WebhookProcessor struct {
	orders    repository.OrderRepository
	events    repository.WebhookEventRepository
	intents   PaymentIntentReader
	notifier  OrderConfirmationNotifier
	archiver  InvoiceArchiver
	publisher messaging.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWebhookProcessor(
	orders repository.OrderRepository,
	events repository.WebhookEventRepository,
	intents PaymentIntentReader,
	notifier OrderConfirmationNotifier,
	archiver InvoiceArchiver,
	publisher messaging.Publisher,
	topic string,
	logger *slog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		orders:    orders,
		events:    events,
		intents:   intents,
		notifier:  notifier,
		archiver:  archiver,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Process handles one verified webhook delivery. A returned error means
// the delivery must be answered with a 5xx so the provider retries it.
func (p *WebhookProcessor) Process(ctx context.Context, event StripeEvent) error {
	record := &domain.WebhookEvent{
		Provider:        webhookProvider,
		ProviderEventID: event.ID,
		EventType:       event.Type,
	}
	if err := p.events.Record(ctx, record); err != nil {
		if errors.Is(err, repository.ErrWebhookEventDuplicate) {
			p.logger.InfoContext(ctx, "webhook event already processed", "event_id", event.ID, "type", event.Type)
			observability.RecordWebhookEvent(ctx, event.Type, "duplicate")
			return nil
		}
		return fmt.Errorf("record webhook event: %w", err)
	}

	err := p.dispatch(ctx, event)
	if markErr := p.events.MarkProcessed(ctx, webhookProvider, event.ID, err); markErr != nil {
		p.logger.ErrorContext(ctx, "failed to mark webhook event processed", "event_id", event.ID, "error", markErr)
	}
	if err != nil {
		observability.RecordWebhookEvent(ctx, event.Type, "error")
		return err
	}
	observability.RecordWebhookEvent(ctx, event.Type, "success")
	return nil
}

func (p *WebhookProcessor) dispatch(ctx context.Context, event StripeEvent) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event)
	case "invoice.paid":
		return p.handleInvoicePaid(ctx, event)
	case "payment_intent.succeeded":
		return p.handleIntentOutcome(ctx, event, domain.PaymentStatusPaid)
	case "payment_intent.payment_failed":
		return p.handleIntentOutcome(ctx, event, domain.PaymentStatusFailed)
	default:
		p.logger.InfoContext(ctx, "ignoring webhook event type", "event_id", event.ID, "type", event.Type)
		return nil
	}
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, event StripeEvent) error {
	var session checkoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	orderID := session.Metadata["orderId"]
	if orderID == "" {
		p.logger.WarnContext(ctx, "checkout session without order correlation", "event_id", event.ID, "session_id", session.ID)
		return nil
	}

	if err := p.orders.MarkPaidBySession(ctx, orderID, session.ID); err != nil {
		return fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	p.publishPaymentEvent(ctx, orderID, domain.PaymentStatusPaid, event.Type)
	p.notifyConfirmation(ctx, orderID)
	return nil
}

func (p *WebhookProcessor) handleInvoicePaid(ctx context.Context, event StripeEvent) error {
	var invoice invoiceObject
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if invoice.PaymentIntent == "" {
		p.logger.WarnContext(ctx, "invoice without payment intent", "event_id", event.ID, "invoice_id", invoice.ID)
		return nil
	}

	intent, err := p.intents.GetPaymentIntent(ctx, invoice.PaymentIntent)
	if err != nil {
		return fmt.Errorf("resolve payment intent %s: %w", invoice.PaymentIntent, err)
	}
	orderID := intent.Metadata["orderId"]
	if orderID == "" {
		p.logger.WarnContext(ctx, "payment intent without order correlation", "event_id", event.ID, "intent_id", intent.ID)
		return nil
	}
	if invoice.HostedInvoiceURL == "" {
		return nil
	}

	// archive is best-effort; the hosted URL is persisted either way
	archiveKey, archiveErr := p.archiver.ArchiveInvoice(ctx, orderID, invoice.HostedInvoiceURL)
	if archiveErr != nil {
		p.logger.WarnContext(ctx, "invoice archive failed", "order_id", orderID, "error", archiveErr)
		archiveKey = ""
	}
	if err := p.orders.SetInvoice(ctx, orderID, invoice.HostedInvoiceURL, archiveKey); err != nil {
		return fmt.Errorf("persist invoice on order %s: %w", orderID, err)
	}
	if archiveKey != "" {
		p.logger.InfoContext(ctx, "invoice archived", "order_id", orderID, "object_key", archiveKey)
	}
	return nil
}

func (p *WebhookProcessor) handleIntentOutcome(ctx context.Context, event StripeEvent, status domain.PaymentStatus) error {
	var intent paymentIntentObject
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	orderID := intent.Metadata["orderId"]
	if orderID == "" {
		p.logger.WarnContext(ctx, "payment intent without order correlation", "event_id", event.ID, "intent_id", intent.ID)
		return nil
	}

	if err := p.orders.SetPaymentIntentOutcome(ctx, orderID, intent.ID, status); err != nil {
		return fmt.Errorf("set order %s payment outcome: %w", orderID, err)
	}
	p.publishPaymentEvent(ctx, orderID, status, event.Type)
	return nil
}

func (p *WebhookProcessor) publishPaymentEvent(ctx context.Context, orderID string, status domain.PaymentStatus, sourceEvent string) {
	if p.publisher == nil {
		return
	}
	err := p.publisher.PublishEvent(ctx, p.topic, orderID, OrderPaymentEvent{
		OrderID:       orderID,
		PaymentStatus: status,
		SourceEvent:   sourceEvent,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		p.logger.WarnContext(ctx, "order payment event publish failed", "order_id", orderID, "error", err)
	}
}

func (p *WebhookProcessor) notifyConfirmation(ctx context.Context, orderID string) {
	if p.notifier == nil {
		return
	}
	order, err := p.orders.FindByID(ctx, orderID)
	if err != nil {
		p.logger.WarnContext(ctx, "confirmation skipped, order lookup failed", "order_id", orderID, "error", err)
		return
	}
	err = p.notifier.SendOrderConfirmation(ctx, OrderConfirmation{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "order confirmation failed", "order_id", orderID, "error", err)
	}
}
