package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role names as stored in the roles table
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleUser      = "user"
)

// Event statuses
const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// TicketStatusConfirmed is the status of every ticket a purchase creates
const TicketStatusConfirmed = "confirmed"

// ValidEventStatus reports whether s is a known event status
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// Role represents a row of the roles table
type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// User represents an account. Password holds the bcrypt hash.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Phone     *string   `db:"phone" json:"phone"`
	RoleID    int64     `db:"role_id" json:"role_id"`
	RoleName  string    `db:"role_name" json:"role_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups events
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Event represents a ticketed event in the catalog
type Event struct {
	ID               int64           `db:"id" json:"id"`
	Title            string          `db:"title" json:"title"`
	Description      string          `db:"description" json:"description"`
	Location         string          `db:"location" json:"location"`
	EventDate        time.Time       `db:"event_date" json:"event_date"`
	Price            decimal.Decimal `db:"price" json:"price"`
	AvailableTickets int             `db:"available_tickets" json:"available_tickets"`
	CategoryID       int64           `db:"category_id" json:"category_id"`
	OrganizerID      int64           `db:"organizer_id" json:"organizer_id"`
	IsFeatured       bool            `db:"is_featured" json:"is_featured"`
	Status           string          `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// EventDetails is an event joined with its category and organizer
type EventDetails struct {
	Event
	CategoryName       string  `db:"category_name" json:"category_name"`
	OrganizerFirstName string  `db:"organizer_first_name" json:"organizer_first_name"`
	OrganizerLastName  string  `db:"organizer_last_name" json:"organizer_last_name"`
	OrganizerEmail     *string `db:"organizer_email" json:"organizer_email,omitempty"`
}

// EventFilter narrows the public event listing
type EventFilter struct {
	CategoryID *int64
	Search     string
	Featured   bool
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

// Offset returns the row offset for the filter's page
func (f EventFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Pagination describes a page of results
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPagination computes page counts from a total
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

// Ticket represents a purchase of one or more admission units
type Ticket struct {
	ID           int64           `db:"id" json:"id"`
	EventID      int64           `db:"event_id" json:"event_id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Status       string          `db:"status" json:"status"`
	PurchaseDate time.Time       `db:"purchase_date" json:"purchase_date"`
}

// TicketDetails is a ticket joined with the display fields of its event
type TicketDetails struct {
	Ticket
	EventTitle       string    `db:"event_title" json:"event_title"`
	EventDescription string    `db:"event_description" json:"event_description"`
	EventLocation    string    `db:"event_location" json:"event_location"`
	EventDate        time.Time `db:"event_date" json:"event_date"`
	EventStatus      string    `db:"event_status" json:"event_status"`
	CategoryName     string    `db:"category_name" json:"category_name"`
}

// PurchaseResult is returned to the buyer after a successful reservation
type PurchaseResult struct {
	TicketID   int64           `json:"ticket_id"`
	EventID    int64           `json:"event_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
