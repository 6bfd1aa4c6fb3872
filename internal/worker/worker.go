package worker

import (
	"context"

	"ticket-service/internal/broker"
	"ticket-service/internal/service"
	"ticket-service/internal/util"
)

// TicketEventsWorker consumes the ticket-events topic
type TicketEventsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewTicketEventsWorker creates a new ticket events worker
func NewTicketEventsWorker(consumer *broker.Consumer, processor *service.TicketEventProcessor) *TicketEventsWorker {
	return &TicketEventsWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(processor),
	}
}

// NewEventHandler routes ticket-events messages to the processor
func NewEventHandler(processor *service.TicketEventProcessor) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnTicketPurchased(processor.HandleTicketPurchased)
	eventHandler.OnEventChanged(processor.HandleEventChanged)
	return eventHandler
}

// Start consumes until ctx is cancelled
func (w *TicketEventsWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting ticket events worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the consumer
func (w *TicketEventsWorker) Stop() error {
	util.GetLogger().Info("Stopping ticket events worker")
	return w.consumer.Close()
}
