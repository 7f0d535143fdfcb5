package handler

import (
	"clinic-ledger/internal/adapter/http/middleware"
	redisStore "clinic-ledger/internal/adapter/storage/redis"
	"clinic-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	ShiftSvc       ports.ShiftService
	HandoverSvc    ports.HandoverService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	AuditSvc       ports.AuditService         // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// All domain routes require a staff bearer token.
	staffAuth := middleware.StaffAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", staffAuth)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallet_ops"), walletHandler.Create)
		wallets.GET("/:id", rl("ledger_read"), walletHandler.Get)
		wallets.GET("/:id/stats", rl("ledger_read"), walletHandler.GetStats)
		wallets.POST("/:id/deposit", rl("wallet_ops"), walletHandler.Deposit)
		wallets.POST("/:id/withdraw", rl("wallet_ops"), walletHandler.Withdraw)
		wallets.POST("/:id/pay", rl("wallet_ops"), walletHandler.Pay)
		wallets.POST("/:id/refund", rl("wallet_ops"), walletHandler.Refund)
		wallets.POST("/:id/adjust", rl("wallet_ops"), walletHandler.Adjust)
		wallets.PATCH("/:id/active", rl("wallet_ops"), walletHandler.SetActive)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.GET("", rl("ledger_read"), walletHandler.ListTransactions)
	}

	shiftHandler := NewShiftHandler(deps.ShiftSvc)
	shifts := v1.Group("/shifts")
	{
		shifts.POST("", rl("shifts"), shiftHandler.Schedule)
		shifts.GET("/active", rl("ledger_read"), shiftHandler.GetActive)
		shifts.GET("/:id", rl("ledger_read"), shiftHandler.Get)
		shifts.GET("/:id/transactions", rl("ledger_read"), shiftHandler.ListTransactions)
		shifts.POST("/:id/start", rl("shifts"), shiftHandler.Start)
		shifts.POST("/:id/end", rl("shifts"), shiftHandler.End)
		shifts.POST("/:id/cancel", rl("shifts"), shiftHandler.Cancel)
		shifts.POST("/:id/cash-in", rl("shifts"), shiftHandler.RecordCashIn)
		shifts.POST("/:id/cash-out", rl("shifts"), shiftHandler.RecordCashOut)
	}

	handoverHandler := NewHandoverHandler(deps.HandoverSvc)
	handovers := v1.Group("/handovers")
	{
		handovers.POST("", rl("handovers"), handoverHandler.Initiate)
		handovers.GET("/pending", rl("ledger_read"), handoverHandler.ListPending)
		handovers.POST("/:id/receive", rl("handovers"), handoverHandler.Receive)
	}

	return r
}
