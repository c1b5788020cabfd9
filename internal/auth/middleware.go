package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const usernameKey = "username"

// OptionalAuth validates a bearer token when one is sent. Requests without an
// Authorization header pass through unauthenticated; a malformed or invalid
// token is rejected with 401.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		username, err := ValidateToken(parts[1])
		if err != nil {
			log.WithError(err).Debug("Token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(usernameKey, username)

		c.Next()
	}
}

// GetUsername retrieves the authenticated username from the context
func GetUsername(c *gin.Context) (string, bool) {
	name, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}

	username, ok := name.(string)
	return username, ok
}

// ActorAllowed reports whether actor may act on this request: always when no
// token was sent, otherwise only when actor is the token's user.
func ActorAllowed(c *gin.Context, actor string) bool {
	username, ok := GetUsername(c)
	if !ok {
		return true
	}
	return username == actor
}
