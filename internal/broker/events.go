package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is the part of Producer the publisher needs
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	writer EventWriter
	now    func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer, now: time.Now}
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: ep.now().UTC(),
	}
}

func catalogKey(eventID int64) string {
	return fmt.Sprintf("event-%d", eventID)
}

// PublishTicketPurchased announces a committed purchase
func (ep *EventPublisher) PublishTicketPurchased(ctx context.Context, ticket *models.Ticket) error {
	event := &models.TicketPurchasedEvent{
		BaseEvent:      ep.base(models.EventTypeTicketPurchased),
		TicketID:       ticket.ID,
		CatalogEventID: ticket.EventID,
		UserID:         ticket.UserID,
		Quantity:       ticket.Quantity,
		TotalPrice:     ticket.TotalPrice,
	}
	return ep.writer.PublishEvent(ctx, catalogKey(ticket.EventID), event)
}

// PublishEventChanged announces that an event was updated or deleted
func (ep *EventPublisher) PublishEventChanged(ctx context.Context, eventID int64, change string) error {
	event := &models.EventChangedEvent{
		BaseEvent:      ep.base(models.EventTypeEventChanged),
		CatalogEventID: eventID,
		Change:         change,
	}
	return ep.writer.PublishEvent(ctx, catalogKey(eventID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onTicketPurchased func(context.Context, *models.TicketPurchasedEvent) error
	onEventChanged    func(context.Context, *models.EventChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTicketPurchased registers a handler for TicketPurchased events
func (eh *EventHandler) OnTicketPurchased(handler func(context.Context, *models.TicketPurchasedEvent) error) {
	eh.onTicketPurchased = handler
}

// OnEventChanged registers a handler for EventChanged events
func (eh *EventHandler) OnEventChanged(handler func(context.Context, *models.EventChangedEvent) error) {
	eh.onEventChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("%w: failed to unmarshal base event: %v", ErrMalformedMessage, err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeTicketPurchased:
		if eh.onTicketPurchased != nil {
			var event models.TicketPurchasedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: failed to unmarshal TicketPurchased event: %v", ErrMalformedMessage, err)
			}
			return eh.onTicketPurchased(ctx, &event)
		}

	case models.EventTypeEventChanged:
		if eh.onEventChanged != nil {
			var event models.EventChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: failed to unmarshal EventChanged event: %v", ErrMalformedMessage, err)
			}
			return eh.onEventChanged(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
