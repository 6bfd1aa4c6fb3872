package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeTicketPurchased = "TICKET_PURCHASED"
	EventTypeEventChanged    = "EVENT_CHANGED"
)

// Reasons carried by EventChangedEvent
const (
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketPurchasedEvent published after a purchase commits
type TicketPurchasedEvent struct {
	BaseEvent
	TicketID       int64           `json:"ticket_id"`
	CatalogEventID int64           `json:"catalog_event_id"`
	UserID         int64           `json:"user_id"`
	Quantity       int             `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

// EventChangedEvent published when an event is updated or deleted
type EventChangedEvent struct {
	BaseEvent
	CatalogEventID int64  `json:"catalog_event_id"`
	Change         string `json:"change"`
}
