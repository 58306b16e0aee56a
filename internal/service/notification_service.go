package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/events"
)

// EventSink receives events that leave the process, such as a broker publisher.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotificationService logs domain events and forwards them to an optional sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, typ := range events.AllEventTypes {
		n.dispatcher.Subscribe(typ, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_type", string(event.Type)),
		zap.String("resource_id", event.ResourceID),
		zap.String("actor", event.Actor.Email),
		zap.Any("payload", event.Payload))

	if n.sink == nil {
		return nil
	}
	if err := n.sink.Publish(ctx, event); err != nil {
		n.logger.Warn("event forward failed", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}
