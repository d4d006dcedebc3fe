package messaging

import "context"

// Publisher sends domain events to a message broker. Order payment events
// are best-effort: a failed publish is logged by the caller, never
// surfaced to the webhook provider.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }
