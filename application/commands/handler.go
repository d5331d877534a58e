// Package commands holds the mutations of the game-group backend. Every
// command validates its input, persists through the record store, publishes a
// domain event and then clears the cached reads it made stale.
package commands

import (
	"context"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator clears cached reads after a write
type Invalidator interface {
	InvalidateGameCaches()
	InvalidateVoteCaches()
}

// Handler executes commands against the record store
type Handler struct {
	repos       ports.Repositories
	publisher   ports.EventPublisher
	invalidator Invalidator
	validator   *Validator
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewHandler creates a new command handler
func NewHandler(
	repos ports.Repositories,
	publisher ports.EventPublisher,
	invalidator Invalidator,
	logger *zap.Logger,
) *Handler {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	return &Handler{
		repos:       repos,
		publisher:   publisher,
		invalidator: invalidator,
		validator:   NewValidator(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// publish sends event and only logs failures. The write has already happened.
func (h *Handler) publish(ctx context.Context, event events.DomainEvent) {
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Error("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
