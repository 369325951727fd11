package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups the HTTP handlers
type Handlers struct {
	Account *handler.AccountHandler
	Chat    *handler.ChatHandler
	Voucher *handler.VoucherHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

// Guards carries what the route-level middlewares need
type Guards struct {
	Sessions    middleware.SessionParser
	Accounts    usecase.AccountUseCase
	InternalKey string

	// Limiter is nil when chat rate limiting is disabled
	Limiter    middleware.Limiter
	LimiterKey func(email, route string) string
	ChatLimit  int
	ChatWindow time.Duration
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, g Guards, logger coreport.Logger) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api")

	// POST /api/auth/session
	api.POST("/auth/session", middleware.RequireInternalKey(g.InternalKey, logger), h.Account.CreateSession)

	authed := api.Group("", middleware.Authenticate(g.Sessions, logger))
	{
		authed.GET("/me", h.Account.Me)
		authed.POST("/chat",
			middleware.RateLimit(g.Limiter, g.LimiterKey, g.ChatLimit, g.ChatWindow, logger),
			h.Chat.Chat,
		)
		authed.POST("/redeem", h.Voucher.Redeem)
	}

	admin := authed.Group("/admin", middleware.RequireAdmin(g.Accounts, logger))
	{
		admin.GET("/keys", h.Voucher.ListKeys)
		admin.POST("/keys", h.Voucher.CreateKey)
	}
}

// MiddlewareConfig selects the optional global middlewares
type MiddlewareConfig struct {
	AllowedOrigins []string
	// ServiceName enables request tracing when set
	ServiceName string
	Metrics     middleware.HTTPObserver
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, cfg MiddlewareConfig, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	if cfg.ServiceName != "" {
		router.Use(middleware.Tracing(cfg.ServiceName)...)
	}
	router.Use(middleware.Logger(logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.CORS(cfg.AllowedOrigins))
}
