package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/config"
)

// AuthMW wraps the token service and ownership rules for middleware
type AuthMW struct {
	tokenSvc domain.TokenService
	rules    []config.OwnershipRule
	logger   *zap.Logger
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, rules []config.OwnershipRule, logger *zap.Logger) *AuthMW {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMW{tokenSvc: tokenSvc, rules: rules, logger: logger}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.tokenSvc)
}

// Ownership rejects requests whose named user_id differs from the token
// subject. Routes without a rule pass through.
func (mw *AuthMW) Ownership() gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, ok := mw.match(c.Request.Method, c.FullPath())
		if !ok {
			c.Next()
			return
		}

		tokenUserID := c.GetString(ContextUserID)
		requested := extractUserID(c, rule.Source, rule.ParamName)
		if requested == "" || requested != tokenUserID {
			mw.logger.Warn("ownership check failed",
				zap.String("method", rule.Method),
				zap.String("route", rule.Path),
				zap.String("user_id", tokenUserID),
			)
			abortJSON(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}

func (mw *AuthMW) match(method, path string) (config.OwnershipRule, bool) {
	for _, rule := range mw.rules {
		if rule.Method == method && rule.Path == path {
			return rule, true
		}
	}
	return config.OwnershipRule{}, false
}
