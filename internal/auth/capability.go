package auth

import (
	"errors"

	"ticket-service/internal/models"
)

// ErrForbidden is returned when the caller's role lacks a capability
var ErrForbidden = errors.New("insufficient permissions")

// Capability names an action a role may be allowed to perform
type Capability string

const (
	PurchaseTickets  Capability = "purchase_tickets"
	ManageEvents     Capability = "manage_events"
	ManageCategories Capability = "manage_categories"
	ManageUsers      Capability = "manage_users"
)

var roleCapabilities = map[string][]Capability{
	models.RoleAdmin:     {PurchaseTickets, ManageEvents, ManageCategories, ManageUsers},
	models.RoleOrganizer: {PurchaseTickets, ManageEvents},
	models.RoleUser:      {PurchaseTickets},
}

// Allows reports whether role grants capability. Unknown roles grant nothing.
func Allows(role string, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
