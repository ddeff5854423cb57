package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/companionsvc/domain"
)

// Context keys set by the token middleware
const (
	ContextUserID = "user_id"
)

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokenSvc domain.TokenService) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Check Bearer token format
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			abortJSON(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := tokenSvc.ValidateAccessToken(strings.TrimSpace(tokenParts[1]))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				abortJSON(c, http.StatusUnauthorized, "Token expired")
			default:
				abortJSON(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	})
}
