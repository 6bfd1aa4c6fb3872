package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ticket-service/internal/auth"
	"ticket-service/internal/models"
	"ticket-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := service.RegisterValidations(v); err != nil {
			panic(err)
		}
	}
}

type errorResponse struct {
	status  int
	message string
}

var domainErrors = map[error]errorResponse{
	models.ErrInvalidInput:         {http.StatusBadRequest, "Event ID and valid quantity are required"},
	models.ErrEventUnavailable:     {http.StatusNotFound, "Event not found or not available"},
	models.ErrTicketNotFound:       {http.StatusNotFound, "Ticket not found"},
	models.ErrEventNotFound:        {http.StatusNotFound, "Event not found"},
	models.ErrEventHasTickets:      {http.StatusBadRequest, "Cannot delete event that has sold tickets"},
	models.ErrCategoryNotFound:     {http.StatusNotFound, "Category not found"},
	models.ErrCategoryExists:       {http.StatusBadRequest, "Category already exists"},
	models.ErrCategoryInUse:        {http.StatusBadRequest, "Cannot delete category that is being used by events"},
	models.ErrUserNotFound:         {http.StatusNotFound, "User not found"},
	models.ErrEmailTaken:           {http.StatusBadRequest, "Email already registered"},
	models.ErrInvalidRole:          {http.StatusBadRequest, "Invalid role ID"},
	models.ErrBadCredentials:       {http.StatusUnauthorized, "Invalid email or password"},
	models.ErrWrongPassword:        {http.StatusUnauthorized, "Current password is incorrect"},
	models.ErrPurchaseInProgress:   {http.StatusConflict, "Purchase already in progress"},
	models.ErrIdempotencyKeyReused: {http.StatusUnprocessableEntity, "Idempotency key was used for a different purchase"},
	auth.ErrForbidden:              {http.StatusForbidden, "Access denied."},
}

// respondError maps a service error to its status and caller-facing message.
// Anything unrecognised is logged and reported as a 500 with fallback.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		fail(c, http.StatusBadRequest, validation.Message)
		return
	}

	var insufficient *models.InsufficientTicketsError
	if errors.As(err, &insufficient) {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Only %d tickets available", insufficient.Available))
		return
	}

	for target, resp := range domainErrors {
		if errors.Is(err, target) {
			fail(c, resp.status, resp.message)
			return
		}
	}

	h.logger.Error(fallback,
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	fail(c, http.StatusInternalServerError, fallback)
}

// bind decodes the JSON body into req. A broken rule is reported with the
// request's own message, anything else with malformed.
func (h *Handler) bind(c *gin.Context, req interface{}, malformed string) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if invalid := service.BindError(req, err); invalid != nil {
		h.respondError(c, invalid, malformed)
		return false
	}
	fail(c, http.StatusBadRequest, malformed)
	return false
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// pathID parses the :id route parameter. ok is false for anything that is
// not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
