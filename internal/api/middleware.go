package api

import (
	"net/http"
	"strings"

	"ticket-service/internal/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

var capabilityDenied = map[auth.Capability]string{
	auth.ManageEvents:     "Access denied. Organizer or Admin privileges required.",
	auth.ManageCategories: "Access denied. Admin privileges required.",
	auth.ManageUsers:      "Access denied. Admin privileges required.",
}

// authenticate resolves the bearer token into an identity
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			fail(c, http.StatusUnauthorized, "Access denied. No token provided.")
			c.Abort()
			return
		}

		id, err := h.tokens.Verify(token)
		if err != nil {
			fail(c, http.StatusForbidden, "Invalid or expired token.")
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// require rejects callers whose role lacks capability
func (h *Handler) require(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Allows(identity(c).Role, capability) {
			fail(c, http.StatusForbidden, capabilityDenied[capability])
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// identity returns the caller set by authenticate
func identity(c *gin.Context) auth.Identity {
	id, _ := c.Get(identityKey)
	caller, _ := id.(auth.Identity)
	return caller
}
