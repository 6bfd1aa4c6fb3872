package api

import (
	"net/http"

	"ticket-service/internal/models"
	"ticket-service/internal/service"

	"github.com/gin-gonic/gin"
)

const maxIdempotencyKeyLength = 128

// purchaseTickets handles POST /api/tickets
func (h *Handler) purchaseTickets(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.ErrInvalidInput, "")
		return
	}

	req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		fail(c, http.StatusBadRequest, "Idempotency-Key is too long")
		return
	}

	result, err := h.tickets.Purchase(c.Request.Context(), identity(c), req)
	if err != nil {
		h.respondError(c, err, "Server error while purchasing tickets")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Tickets purchased successfully",
		"data":    result,
	})
}

// listTickets handles GET /api/tickets/user
func (h *Handler) listTickets(c *gin.Context) {
	tickets, err := h.tickets.ListForUser(c.Request.Context(), identity(c))
	if err != nil {
		h.respondError(c, err, "Server error while fetching tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tickets,
	})
}

// getTicket handles GET /api/tickets/:id
func (h *Handler) getTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrTicketNotFound, "")
		return
	}

	ticket, err := h.tickets.GetForUser(c.Request.Context(), identity(c), id)
	if err != nil {
		h.respondError(c, err, "Server error while fetching ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}
