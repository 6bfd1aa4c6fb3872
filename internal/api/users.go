package api

import (
	"net/http"

	"ticket-service/internal/models"
	"ticket-service/internal/service"

	"github.com/gin-gonic/gin"
)

// register handles POST /api/auth/register
func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bind(c, &req, "Invalid request body") {
		return
	}

	result, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

// login handles POST /api/auth/login
func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if !h.bind(c, &req, "Invalid request body") {
		return
	}

	result, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Server error while fetching users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), identity(c))
	if err != nil {
		h.respondError(c, err, "Server error while fetching profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if !h.bind(c, &req, "First name and last name are required") {
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), identity(c), req); err != nil {
		h.respondError(c, err, "Server error while updating profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
	})
}

type roleUpdate struct {
	RoleID int64 `json:"role_id"`
}

func (h *Handler) updateUserRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrUserNotFound, "")
		return
	}

	var req roleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Role ID is required")
		return
	}

	if err := h.users.SetRole(c.Request.Context(), id, req.RoleID); err != nil {
		h.respondError(c, err, "Server error while updating user role")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User role updated successfully",
	})
}
