package service

import (
	"context"
	"fmt"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"go.uber.org/zap"
)

// ProcessedEventStore records which domain events were already handled
type ProcessedEventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// CacheInvalidator drops cached event details
type CacheInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// TicketEventProcessor reacts to ticket-events messages. Every message is
// handled at most once per the processed_events table.
type TicketEventProcessor struct {
	store  ProcessedEventStore
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewTicketEventProcessor creates a new processor
func NewTicketEventProcessor(store ProcessedEventStore, cache CacheInvalidator) *TicketEventProcessor {
	return &TicketEventProcessor{store: store, cache: cache, logger: util.GetLogger()}
}

// HandleTicketPurchased refreshes the cached availability of the event
func (p *TicketEventProcessor) HandleTicketPurchased(ctx context.Context, event *models.TicketPurchasedEvent) (err error) {
	ctx, span := util.StartSpan(ctx, "TicketEventProcessor.HandleTicketPurchased")
	defer func() { util.EndSpan(span, err) }()

	return p.once(ctx, event.BaseEvent, func() error {
		p.logger.Info("Ticket purchase observed",
			zap.Int64("ticket_id", event.TicketID),
			zap.Int64("event_id", event.CatalogEventID),
			zap.Int("quantity", event.Quantity))
		return p.invalidate(ctx, event.CatalogEventID)
	})
}

// HandleEventChanged drops the cached copy of an updated or deleted event
func (p *TicketEventProcessor) HandleEventChanged(ctx context.Context, event *models.EventChangedEvent) (err error) {
	ctx, span := util.StartSpan(ctx, "TicketEventProcessor.HandleEventChanged")
	defer func() { util.EndSpan(span, err) }()

	return p.once(ctx, event.BaseEvent, func() error {
		p.logger.Info("Event change observed",
			zap.Int64("event_id", event.CatalogEventID),
			zap.String("change", event.Change))
		return p.invalidate(ctx, event.CatalogEventID)
	})
}

func (p *TicketEventProcessor) once(ctx context.Context, base models.BaseEvent, handle func() error) error {
	processed, err := p.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		p.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	if err := handle(); err != nil {
		return err
	}

	util.TicketEventsConsumedTotal.WithLabelValues(base.EventType).Inc()

	if err := p.store.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		p.logger.Error("Failed to mark event processed", zap.String("event_id", base.EventID), zap.Error(err))
	}
	return nil
}

func (p *TicketEventProcessor) invalidate(ctx context.Context, eventID int64) error {
	if p.cache == nil {
		return nil
	}
	if err := p.cache.InvalidateEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to invalidate event %d: %w", eventID, err)
	}
	return nil
}
