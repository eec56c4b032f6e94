package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"datacenter-audit-backend/internal/auth"
)

// IdentityKey is the gin context key under which the verified caller is stored.
const IdentityKey = "identity"

// Auth verifies the bearer token on every request and stores the caller's
// identity in the context. Missing or invalid tokens are rejected with a 401
// JSON error body; nothing ever leaks to the client as an exception.
func Auth(tokens auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing authorization header",
			})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authorization header must be a bearer token",
			})
			return
		}

		identity, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// Identity returns the verified caller stored by Auth, or nil when the
// request was not authenticated.
func Identity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}
