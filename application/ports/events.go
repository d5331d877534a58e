package ports

import (
	"context"

	"gamegroup-backend/domain/events"
)

// EventPublisher publishes domain events raised by mutations
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// NoopPublisher drops every event. Used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event events.DomainEvent) error { return nil }

func (NoopPublisher) PublishBatch(ctx context.Context, events []events.DomainEvent) error {
	return nil
}
