package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("agrimarket/core")

	repositoryOps  metric.Int64Counter
	webhookEvents  metric.Int64Counter
	shippingQuotes metric.Int64Counter
)

func init() {
	repositoryOps, _ = meter.Int64Counter("repository.operations",
		metric.WithDescription("Repository operations by entity, operation and outcome"))
	webhookEvents, _ = meter.Int64Counter("webhook.events",
		metric.WithDescription("Processed payment webhook events by type and outcome"))
	shippingQuotes, _ = meter.Int64Counter("shipping.quotes",
		metric.WithDescription("Shipping rate aggregations by outcome"))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordWebhookEvent(ctx context.Context, eventType, outcome string) {
	webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

func RecordShippingQuote(ctx context.Context, outcome string) {
	shippingQuotes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
