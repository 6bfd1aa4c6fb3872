package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ticket-service/internal/models"
)

const eventDetailsSelect = `
	SELECT
		e.id, e.title, e.description, e.location, e.event_date, e.price,
		e.available_tickets, e.category_id, e.organizer_id, e.is_featured,
		e.status, e.created_at, e.updated_at,
		c.name AS category_name,
		u.first_name AS organizer_first_name,
		u.last_name AS organizer_last_name`

// eventFilterClause builds the WHERE clause shared by the listing and its count
func eventFilterClause(f models.EventFilter) (string, []interface{}) {
	conds := []string{"e.status = 'active'"}
	args := []interface{}{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.CategoryID != nil {
		add("e.category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		add("(e.title ILIKE ? OR e.description ILIKE ?)", "%"+f.Search+"%")
	}
	if f.Featured {
		conds = append(conds, "e.is_featured = TRUE")
	}
	if f.StartDate != nil {
		add("e.event_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		add("e.event_date <= ?", *f.EndDate)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListActiveEvents returns one page of active events and the total match count
func (s *Store) ListActiveEvents(ctx context.Context, f models.EventFilter) ([]models.EventDetails, int, error) {
	where, args := eventFilterClause(f)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events e"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := eventDetailsSelect + `
	FROM events e
	JOIN categories c ON e.category_id = c.id
	JOIN users u ON e.organizer_id = u.id` + where +
		fmt.Sprintf(" ORDER BY e.event_date ASC, e.id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	events := []models.EventDetails{}
	if err := s.db.SelectContext(ctx, &events, query, append(args, f.Limit, f.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// GetEventDetails retrieves an event of any status with its category and organizer
func (s *Store) GetEventDetails(ctx context.Context, id int64) (*models.EventDetails, error) {
	var event models.EventDetails
	err := s.db.GetContext(ctx, &event, eventDetailsSelect+`,
		u.email AS organizer_email
	FROM events e
	JOIN categories c ON e.category_id = c.id
	JOIN users u ON e.organizer_id = u.id
	WHERE e.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// CreateEvent inserts a new event
func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, event_date, price, available_tickets,
			category_id, organizer_id, is_featured, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, event, query,
		event.Title, event.Description, event.Location, event.EventDate, event.Price,
		event.AvailableTickets, event.CategoryID, event.OrganizerID, event.IsFeatured, event.Status)
	if isForeignKeyViolation(err) {
		return models.NewValidationError("Invalid category ID")
	}
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// UpdateEvent overwrites the editable fields of an event. available_tickets is
// not editable here; only PurchaseTicketsTx changes it after creation.
func (s *Store) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET title = $1, description = $2, location = $3, event_date = $4, price = $5,
			category_id = $6, is_featured = $7, status = $8, updated_at = NOW()
		WHERE id = $9`,
		event.Title, event.Description, event.Location, event.EventDate, event.Price,
		event.CategoryID, event.IsFeatured, event.Status, event.ID)
	if isForeignKeyViolation(err) {
		return models.NewValidationError("Invalid category ID")
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectOneRow(res, models.ErrEventNotFound)
}

// DeleteEvent removes an event that has no tickets
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	var sold bool
	if err := s.db.GetContext(ctx, &sold,
		"SELECT EXISTS(SELECT 1 FROM tickets WHERE event_id = $1)", id); err != nil {
		return fmt.Errorf("failed to check event tickets: %w", err)
	}
	if sold {
		return models.ErrEventHasTickets
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return models.ErrEventHasTickets
	}
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return expectOneRow(res, models.ErrEventNotFound)
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
