// Package auth resolves the caller's identity. Identity is an opaque user
// identifier supplied by an upstream auth layer in the X-User-ID header;
// this package trusts it as given and rejects requests without one.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the opaque user identifier set by the upstream
// auth layer.
const UserIDHeader = "X-User-ID"

// ContextKeyUserID is the Gin context key holding the resolved identity.
const ContextKeyUserID = "auth_user_id"

// RequireUser returns a middleware that rejects requests without an
// identity header and stores the identifier in the Gin context otherwise.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID extracts the authenticated user's identifier from the Gin
// context. Empty when RequireUser did not run.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}
