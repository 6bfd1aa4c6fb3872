package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-service/internal/models"

	"github.com/shopspring/decimal"
)

type eventStock struct {
	Price            decimal.Decimal `db:"price"`
	AvailableTickets int             `db:"available_tickets"`
	Status           string          `db:"status"`
}

// PurchaseTicketsTx reserves quantity units of an event and records the
// ticket in one transaction.
//
// The event row is locked with FOR UPDATE so that concurrent purchases of the
// same event serialize on it; price, status and capacity are all read under
// that lock. The decrement is additionally guarded by available_tickets >= $1
// and the table carries CHECK (available_tickets >= 0).
func (s *Store) PurchaseTicketsTx(ctx context.Context, userID, eventID int64, quantity int) (*models.Ticket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stock eventStock
	err = tx.GetContext(ctx, &stock,
		"SELECT price, available_tickets, status FROM events WHERE id = $1 FOR UPDATE", eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	if stock.Status != models.EventStatusActive {
		return nil, models.ErrEventUnavailable
	}

	if stock.AvailableTickets < quantity {
		return nil, &models.InsufficientTicketsError{Available: stock.AvailableTickets}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE events SET available_tickets = available_tickets - $1, updated_at = NOW() WHERE id = $2 AND available_tickets >= $1",
		quantity, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement available tickets: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read decrement result: %w", err)
	}
	if affected != 1 {
		return nil, &models.InsufficientTicketsError{Available: stock.AvailableTickets}
	}

	ticket := &models.Ticket{
		EventID:    eventID,
		UserID:     userID,
		Quantity:   quantity,
		TotalPrice: stock.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:     models.TicketStatusConfirmed,
	}

	err = tx.GetContext(ctx, ticket, `
		INSERT INTO tickets (event_id, user_id, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, purchase_date`,
		ticket.EventID, ticket.UserID, ticket.Quantity, ticket.TotalPrice, ticket.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	return ticket, nil
}

const ticketDetailsSelect = `
	SELECT
		t.id, t.event_id, t.user_id, t.quantity, t.total_price, t.status, t.purchase_date,
		e.title AS event_title,
		e.description AS event_description,
		e.location AS event_location,
		e.event_date,
		e.status AS event_status,
		c.name AS category_name
	FROM tickets t
	JOIN events e ON t.event_id = e.id
	JOIN categories c ON e.category_id = c.id`

// GetTicketsByUserID retrieves a user's tickets, newest purchase first
func (s *Store) GetTicketsByUserID(ctx context.Context, userID int64) ([]models.TicketDetails, error) {
	tickets := []models.TicketDetails{}
	err := s.db.SelectContext(ctx, &tickets,
		ticketDetailsSelect+" WHERE t.user_id = $1 ORDER BY t.purchase_date DESC, t.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicketForUser retrieves a ticket only when it belongs to userID
func (s *Store) GetTicketForUser(ctx context.Context, ticketID, userID int64) (*models.TicketDetails, error) {
	var ticket models.TicketDetails
	err := s.db.GetContext(ctx, &ticket,
		ticketDetailsSelect+" WHERE t.id = $1 AND t.user_id = $2", ticketID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
