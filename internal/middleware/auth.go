package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"locktheday/internal/auth"
)

// Auth validates the Authorization header and stores the caller's user id
// in the gin context.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := bearerUserID(c, verifier)
		if err != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a token is present but
// lets anonymous requests through. Public capsule reads rely on this: an
// anonymous viewer is a valid viewer, just with no identity-based access.
func OptionalAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if userID, errMsg := bearerUserID(c, verifier); errMsg == "" {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}

func bearerUserID(c *gin.Context, verifier auth.Verifier) (int, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return 0, "missing authorization"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, "invalid authorization header"
	}

	userID, err := verifier.Verify(parts[1])
	if err != nil {
		return 0, "invalid token"
	}
	return userID, ""
}
