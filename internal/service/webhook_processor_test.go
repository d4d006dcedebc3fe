package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
)

type fakeOrderRepo struct {
	orders     map[string]*domain.Order
	updateErr  error
	findErr    error
	paidCalls  int
	intentSets int
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) List(context.Context, repository.PageRequest) (repository.PageResult[domain.Order], error) {
	return repository.PageResult[domain.Order]{}, nil
}

func (r *fakeOrderRepo) MarkPaidBySession(_ context.Context, orderID, sessionID string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	r.paidCalls++
	o.PaymentStatus = domain.PaymentStatusPaid
	o.StripeSessionID = sessionID
	return nil
}

func (r *fakeOrderRepo) SetPaymentIntentOutcome(_ context.Context, orderID, intentID string, status domain.PaymentStatus) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	r.intentSets++
	o.PaymentStatus = status
	o.StripePaymentIntentID = intentID
	return nil
}

func (r *fakeOrderRepo) SetInvoice(_ context.Context, orderID, invoiceURL, archiveKey string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.InvoiceURL = invoiceURL
	o.InvoiceArchiveKey = archiveKey
	return nil
}

type fakeEventRepo struct {
	seen      map[string]bool
	recorded  int
	marked    int
	recordErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: map[string]bool{}}
}

func (r *fakeEventRepo) Record(_ context.Context, event *domain.WebhookEvent) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	key := event.Provider + ":" + event.ProviderEventID
	if r.seen[key] {
		return repository.ErrWebhookEventDuplicate
	}
	r.seen[key] = true
	r.recorded++
	return nil
}

func (r *fakeEventRepo) MarkProcessed(context.Context, string, string, error) error {
	r.marked++
	return nil
}

type fakeIntentReader struct {
	intents map[string]*PaymentIntent
	err     error
}

func (r *fakeIntentReader) GetPaymentIntent(_ context.Context, id string) (*PaymentIntent, error) {
	if r.err != nil {
		return nil, r.err
	}
	intent, ok := r.intents[id]
	if !ok {
		return nil, fmt.Errorf("unknown intent %s", id)
	}
	return intent, nil
}

type recordingNotifier struct {
	sent []OrderConfirmation
	err  error
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, c OrderConfirmation) error {
	n.sent = append(n.sent, c)
	return n.err
}

type recordingPublisher struct {
	events []any
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, _ string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeInvoiceArchiver struct {
	key         string
	archiveErr  error
	downloadURL string
}

func (a *fakeInvoiceArchiver) ArchiveInvoice(context.Context, string, string) (string, error) {
	if a.archiveErr != nil {
		return "", a.archiveErr
	}
	return a.key, nil
}

func (a *fakeInvoiceArchiver) InvoiceDownloadURL(context.Context, string) (string, error) {
	return a.downloadURL, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcessorForTest(orders *fakeOrderRepo, events *fakeEventRepo, intents *fakeIntentReader, notifier *recordingNotifier, publisher *recordingPublisher) *WebhookProcessor {
	if intents == nil {
		intents = &fakeIntentReader{}
	}
	return NewWebhookProcessor(orders, events, intents, notifier, NoopInvoiceArchiver{}, publisher, "order-events", testLogger())
}

func checkoutEvent(id, orderID string) StripeEvent {
	object := map[string]any{"id": "cs_test_1", "metadata": map[string]string{}}
	if orderID != "" {
		object["metadata"] = map[string]string{"orderId": orderID}
	}
	raw, _ := json.Marshal(object)
	event := StripeEvent{ID: id, Type: "checkout.session.completed"}
	event.Data.Object = raw
	return event
}

func intentEvent(id, eventType, orderID string) StripeEvent {
	raw, _ := json.Marshal(map[string]any{"id": "pi_1", "metadata": map[string]string{"orderId": orderID}})
	event := StripeEvent{ID: id, Type: eventType}
	event.Data.Object = raw
	return event
}

func TestProcessCheckoutCompletedMarksPaidAndNotifies(t *testing.T) {
	order := &domain.Order{ID: "ord-1", CustomerEmail: "buyer@example.com", TotalAmount: 30, PaymentStatus: domain.PaymentStatusPending}
	orders := newFakeOrderRepo(order)
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	p := newProcessorForTest(orders, newFakeEventRepo(), nil, notifier, publisher)

	if err := p.Process(context.Background(), checkoutEvent("evt_1", "ord-1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid || order.StripeSessionID != "cs_test_1" {
		t.Fatalf("unexpected order state: %+v", order)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].OrderID != "ord-1" {
		t.Fatalf("expected one confirmation, got %+v", notifier.sent)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
}

func TestProcessReplayedEventIsNoop(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPending}
	orders := newFakeOrderRepo(order)
	events := newFakeEventRepo()
	p := newProcessorForTest(orders, events, nil, &recordingNotifier{}, &recordingPublisher{})

	event := checkoutEvent("evt_1", "ord-1")
	for i := 0; i < 2; i++ {
		if err := p.Process(context.Background(), event); err != nil {
			t.Fatalf("process attempt %d: %v", i+1, err)
		}
	}
	if orders.paidCalls != 1 {
		t.Fatalf("expected exactly one paid mutation, got %d", orders.paidCalls)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", order.PaymentStatus)
	}
}

func TestProcessCheckoutWithoutOrderIDIsIgnored(t *testing.T) {
	orders := newFakeOrderRepo()
	p := newProcessorForTest(orders, newFakeEventRepo(), nil, &recordingNotifier{}, &recordingPublisher{})

	if err := p.Process(context.Background(), checkoutEvent("evt_1", "")); err != nil {
		t.Fatalf("expected missing metadata to be ignored, got %v", err)
	}
	if orders.paidCalls != 0 {
		t.Fatal("expected no order mutation")
	}
}

func TestProcessIntentSucceededAndFailed(t *testing.T) {
	cases := []struct {
		eventType string
		want      domain.PaymentStatus
	}{
		{"payment_intent.succeeded", domain.PaymentStatusPaid},
		{"payment_intent.payment_failed", domain.PaymentStatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPending}
			orders := newFakeOrderRepo(order)
			p := newProcessorForTest(orders, newFakeEventRepo(), nil, &recordingNotifier{}, &recordingPublisher{})

			if err := p.Process(context.Background(), intentEvent("evt_1", tc.eventType, "ord-1")); err != nil {
				t.Fatalf("process: %v", err)
			}
			if order.PaymentStatus != tc.want || order.StripePaymentIntentID != "pi_1" {
				t.Fatalf("unexpected order state: %+v", order)
			}
		})
	}
}

func TestProcessInvoicePaidResolvesIntentAndStoresURL(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPaid}
	orders := newFakeOrderRepo(order)
	intents := &fakeIntentReader{intents: map[string]*PaymentIntent{
		"pi_9": {ID: "pi_9", Metadata: map[string]string{"orderId": "ord-1"}},
	}}
	p := newProcessorForTest(orders, newFakeEventRepo(), intents, &recordingNotifier{}, &recordingPublisher{})

	raw, _ := json.Marshal(map[string]any{
		"id":                 "in_1",
		"payment_intent":     "pi_9",
		"hosted_invoice_url": "https://pay.example.com/invoice/in_1",
	})
	event := StripeEvent{ID: "evt_1", Type: "invoice.paid"}
	event.Data.Object = raw

	if err := p.Process(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}
	if order.InvoiceURL != "https://pay.example.com/invoice/in_1" {
		t.Fatalf("expected invoice url persisted, got %q", order.InvoiceURL)
	}
}

func invoicePaidEvent() StripeEvent {
	raw, _ := json.Marshal(map[string]any{
		"id":                 "in_1",
		"payment_intent":     "pi_9",
		"hosted_invoice_url": "https://pay.example.com/invoice/in_1",
	})
	event := StripeEvent{ID: "evt_1", Type: "invoice.paid"}
	event.Data.Object = raw
	return event
}

func TestProcessInvoicePaidPersistsArchiveKey(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPaid}
	orders := newFakeOrderRepo(order)
	intents := &fakeIntentReader{intents: map[string]*PaymentIntent{
		"pi_9": {ID: "pi_9", Metadata: map[string]string{"orderId": "ord-1"}},
	}}
	archiver := &fakeInvoiceArchiver{key: "invoices/ord-1/in_1.pdf"}
	p := NewWebhookProcessor(orders, newFakeEventRepo(), intents, &recordingNotifier{}, archiver, &recordingPublisher{}, "order-events", testLogger())

	if err := p.Process(context.Background(), invoicePaidEvent()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if order.InvoiceArchiveKey != "invoices/ord-1/in_1.pdf" {
		t.Fatalf("expected archive key persisted, got %q", order.InvoiceArchiveKey)
	}
	if order.InvoiceURL != "https://pay.example.com/invoice/in_1" {
		t.Fatalf("expected invoice url persisted, got %q", order.InvoiceURL)
	}
}

func TestProcessInvoicePaidArchiveFailureStillStoresURL(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPaid}
	orders := newFakeOrderRepo(order)
	intents := &fakeIntentReader{intents: map[string]*PaymentIntent{
		"pi_9": {ID: "pi_9", Metadata: map[string]string{"orderId": "ord-1"}},
	}}
	archiver := &fakeInvoiceArchiver{archiveErr: errors.New("bucket unreachable")}
	p := NewWebhookProcessor(orders, newFakeEventRepo(), intents, &recordingNotifier{}, archiver, &recordingPublisher{}, "order-events", testLogger())

	if err := p.Process(context.Background(), invoicePaidEvent()); err != nil {
		t.Fatalf("expected archive failure to be tolerated, got %v", err)
	}
	if order.InvoiceURL != "https://pay.example.com/invoice/in_1" {
		t.Fatalf("expected invoice url persisted despite archive failure, got %q", order.InvoiceURL)
	}
	if order.InvoiceArchiveKey != "" {
		t.Fatalf("expected empty archive key, got %q", order.InvoiceArchiveKey)
	}
}

func TestProcessUnknownTypeIsIgnored(t *testing.T) {
	orders := newFakeOrderRepo()
	events := newFakeEventRepo()
	p := newProcessorForTest(orders, events, nil, &recordingNotifier{}, &recordingPublisher{})

	event := StripeEvent{ID: "evt_1", Type: "customer.created"}
	event.Data.Object = json.RawMessage(`{}`)
	if err := p.Process(context.Background(), event); err != nil {
		t.Fatalf("expected unknown type to be ignored, got %v", err)
	}
	if events.marked != 1 {
		t.Fatalf("expected event marked processed, got %d", events.marked)
	}
}

func TestProcessPropagatesOrderUpdateFailure(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPending}
	orders := newFakeOrderRepo(order)
	orders.updateErr = errors.New("connection reset")
	p := newProcessorForTest(orders, newFakeEventRepo(), nil, &recordingNotifier{}, &recordingPublisher{})

	if err := p.Process(context.Background(), checkoutEvent("evt_1", "ord-1")); err == nil {
		t.Fatal("expected update failure to propagate for provider retry")
	}
}

func TestProcessNotifierFailureDoesNotFailAck(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPending}
	orders := newFakeOrderRepo(order)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	p := newProcessorForTest(orders, newFakeEventRepo(), nil, notifier, &recordingPublisher{})

	if err := p.Process(context.Background(), checkoutEvent("evt_1", "ord-1")); err != nil {
		t.Fatalf("expected notifier failure to be swallowed, got %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", order.PaymentStatus)
	}
}

func TestProcessPublisherFailureDoesNotFailAck(t *testing.T) {
	order := &domain.Order{ID: "ord-1", PaymentStatus: domain.PaymentStatusPending}
	orders := newFakeOrderRepo(order)
	publisher := &recordingPublisher{err: errors.New("broker unreachable")}
	p := newProcessorForTest(orders, newFakeEventRepo(), nil, &recordingNotifier{}, publisher)

	if err := p.Process(context.Background(), checkoutEvent("evt_1", "ord-1")); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
}
