package event

import (
	"context"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingHandler records every event in the request's log
type LoggingHandler struct{}

// Handle logs the event
func (LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.L(ctx).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// EventTypes subscribes the handler to all events
func (LoggingHandler) EventTypes() []string {
	return nil
}
