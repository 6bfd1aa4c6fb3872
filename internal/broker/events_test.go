package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ticket-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	key   string
	event interface{}
}

type fakeWriter struct {
	messages []recordedMessage
	err      error
}

func (f *fakeWriter) PublishEvent(_ context.Context, key string, event interface{}) error {
	f.messages = append(f.messages, recordedMessage{key: key, event: event})
	return f.err
}

func TestPublishTicketPurchased(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewEventPublisher(writer)
	publisher.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }

	ticket := &models.Ticket{ID: 7, EventID: 3, UserID: 42, Quantity: 2, TotalPrice: decimal.NewFromInt(30)}
	require.NoError(t, publisher.PublishTicketPurchased(context.Background(), ticket))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "event-3", writer.messages[0].key)

	event, ok := writer.messages[0].event.(*models.TicketPurchasedEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeTicketPurchased, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, int64(7), event.TicketID)
	assert.Equal(t, int64(3), event.CatalogEventID)
	assert.Equal(t, 2, event.Quantity)
}

func TestPublishEventChangedPropagatesWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	publisher := NewEventPublisher(writer)

	err := publisher.PublishEventChanged(context.Background(), 9, models.ChangeDeleted)
	assert.EqualError(t, err, "broker down")
}

func TestHandleMessageDispatch(t *testing.T) {
	handler := NewEventHandler()

	var purchased *models.TicketPurchasedEvent
	var changed *models.EventChangedEvent
	handler.OnTicketPurchased(func(_ context.Context, e *models.TicketPurchasedEvent) error {
		purchased = e
		return nil
	})
	handler.OnEventChanged(func(_ context.Context, e *models.EventChangedEvent) error {
		changed = e
		return nil
	})

	body, err := json.Marshal(models.TicketPurchasedEvent{
		BaseEvent:      models.BaseEvent{EventID: "e-1", EventType: models.EventTypeTicketPurchased},
		CatalogEventID: 3,
		Quantity:       4,
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: body}))
	require.NotNil(t, purchased)
	assert.Equal(t, int64(3), purchased.CatalogEventID)
	assert.Equal(t, 4, purchased.Quantity)

	body, err = json.Marshal(models.EventChangedEvent{
		BaseEvent:      models.BaseEvent{EventID: "e-2", EventType: models.EventTypeEventChanged},
		CatalogEventID: 5,
		Change:         models.ChangeUpdated,
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: body}))
	require.NotNil(t, changed)
	assert.Equal(t, models.ChangeUpdated, changed.Change)
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)})
	assert.NoError(t, err)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
