package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for a purchase without a valid event id and quantity.
	ErrInvalidInput = errors.New("event id and valid quantity are required")

	// ErrEventUnavailable covers both a missing event and one that is not active.
	ErrEventUnavailable = errors.New("event not found or not available")

	// ErrTicketNotFound is returned whether the ticket is missing or owned by someone else.
	ErrTicketNotFound = errors.New("ticket not found")

	ErrEventNotFound    = errors.New("event not found")
	ErrEventHasTickets  = errors.New("event has sold tickets")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is being used by events")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidRole      = errors.New("invalid role id")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrWrongPassword    = errors.New("current password is incorrect")

	// ErrPurchaseInProgress is returned when another request holds the same idempotency key.
	ErrPurchaseInProgress = errors.New("purchase already in progress")

	// ErrIdempotencyKeyReused is returned when a key is replayed with a different event or quantity.
	ErrIdempotencyKeyReused = errors.New("idempotency key was used for a different purchase")
)

// InsufficientTicketsError reports the remaining capacity observed by the
// failed purchase so the caller can offer a smaller quantity.
type InsufficientTicketsError struct {
	Available int
}

func (e *InsufficientTicketsError) Error() string {
	return fmt.Sprintf("only %d tickets available", e.Available)
}

// ValidationError carries a caller-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
