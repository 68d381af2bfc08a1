package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/service"
)

const identityKey = "identity"

// authRequired verifies the bearer token and attaches the caller's identity
// to the request context.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			respondError(c, apperr.Unauthorized("Missing bearer token"))
			c.Abort()
			return
		}

		identity, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// authOptional attaches the caller's identity when a valid bearer token is
// present and lets the request through either way. Guest checkout stays open
// while signed-in buyers get their orders linked to their account.
func (h *Handler) authOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header != "" && token != header {
			if identity, err := h.auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// adminRequired gates admin-only routes. Must run after authRequired.
func (h *Handler) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if identity == nil || identity.Role != models.RoleAdmin {
			respondError(c, apperr.Forbidden("Admin only"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) *service.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*service.Identity)
	return identity
}

// corsMiddleware allows the browser frontend, served elsewhere, to reach
// the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
