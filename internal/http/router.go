package httpx

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/internal/http/handlers"
	"github.com/you/companionsvc/internal/http/middleware"
	"github.com/you/companionsvc/internal/infrastructure/metrics"
)

// Handlers groups the route handlers of the service
type Handlers struct {
	Auth   *handlers.AuthHandlers
	Bots   *handlers.BotHandlers
	Chat   *handlers.ChatHandlers
	Health *handlers.HealthHandlers
}

// RouterOptions tunes the router
type RouterOptions struct {
	// AuthMW enforces bearer tokens and ownership when non-nil
	AuthMW             *middleware.AuthMW
	Metrics            *metrics.Metrics
	MaxMultipartMemory int64
}

func BuildRouter(logger *zap.Logger, h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(logger), middleware.Recovery(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	r.NoRoute(func(c *gin.Context) { handlers.ErrorBody(c, 404, "Not found") })

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/uploads/:filename", h.Bots.Avatar)

	auth := r.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/email-verification", h.Auth.VerifyEmail)
	auth.POST("/forgot-password/request", h.Auth.ForgotPasswordRequest)
	auth.POST("/forgot-password/verify", h.Auth.ForgotPasswordVerify)

	var protected []gin.HandlerFunc
	if opts.AuthMW != nil {
		protected = []gin.HandlerFunc{opts.AuthMW.WithJWT(), opts.AuthMW.Ownership()}
	}

	bots := r.Group("/bots")
	bots.GET("/public", h.Bots.ListPublic)
	bots.GET("/:bot_id", h.Bots.Get)
	owned := bots.Group("", protected...)
	owned.POST("/createbot", h.Bots.Create)
	owned.GET("/my", h.Bots.ListMine)
	owned.PUT("/:bot_id", h.Bots.Update)

	chat := r.Group("/chat", protected...)
	chat.POST("/ask", h.Chat.Ask)
	chat.GET("/history", h.Chat.History)
	chat.DELETE("/restart", h.Chat.Restart)
	chat.DELETE("/history", h.Chat.Restart)

	return r
}
