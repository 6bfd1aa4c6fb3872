package api

import (
	"net/http"
	"strconv"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listEvents handles GET /api/events
func (h *Handler) listEvents(c *gin.Context) {
	filter, err := eventFilterFromQuery(c)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	page, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Server error while fetching events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"events":     page.Events,
		"pagination": page.Pagination,
	})
}

// eventFilterFromQuery reads paging and filters. Unparseable page and limit
// values fall back to the defaults.
func eventFilterFromQuery(c *gin.Context) (models.EventFilter, error) {
	var f models.EventFilter

	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Search = c.Query("search")
	f.Featured = c.Query("featured") == "true"

	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, models.NewValidationError("Invalid category filter")
		}
		f.CategoryID = &id
	}

	var err error
	if f.StartDate, err = parseDateParam(c.Query("startDate")); err != nil {
		return f, models.NewValidationError("Invalid startDate")
	}
	if f.EndDate, err = parseDateParam(c.Query("endDate")); err != nil {
		return f, models.NewValidationError("Invalid endDate")
	}

	return f, nil
}

// parseDateParam accepts RFC 3339 timestamps and plain dates
func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &time.ParseError{Value: raw, Layout: time.RFC3339}
}

// getEvent handles GET /api/events/:id
func (h *Handler) getEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrEventNotFound, "")
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Server error while fetching event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   event,
	})
}

// createEvent handles POST /api/events
func (h *Handler) createEvent(c *gin.Context) {
	var in service.EventInput
	if !h.bind(c, &in, "All fields are required") {
		return
	}

	event, err := h.events.Create(c.Request.Context(), identity(c).UserID, in)
	if err != nil {
		h.respondError(c, err, "Server error while creating event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Event created successfully",
		"data": gin.H{
			"id":    event.ID,
			"title": event.Title,
		},
	})
}

// updateEvent handles PUT /api/events/:id
func (h *Handler) updateEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrEventNotFound, "")
		return
	}

	var in service.EventInput
	if !h.bind(c, &in, "All fields are required") {
		return
	}

	if err := h.events.Update(c.Request.Context(), id, in); err != nil {
		h.respondError(c, err, "Server error while updating event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event updated successfully",
	})
}

// deleteEvent handles DELETE /api/events/:id
func (h *Handler) deleteEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrEventNotFound, "")
		return
	}

	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Server error while deleting event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event deleted successfully",
	})
}
