package handler

import (
	"hotspot-fulfillment/internal/adapter/http/middleware"
	redisStore "hotspot-fulfillment/internal/adapter/storage/redis"
	"hotspot-fulfillment/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	FulfillSvc     ports.FulfillmentService
	VoucherSvc     ports.VoucherService
	AuthSvc        ports.AuthService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Registry       *prometheus.Registry // nil = /metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

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

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	paymentHandler := NewPaymentHandler(deps.FulfillSvc)
	payments := v1.Group("/payments")
	{
		payments.POST("/callback", rl("callback"), paymentHandler.Callback)
	}

	// --- JWT-authenticated operator routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	fulfillmentHandler := NewFulfillmentHandler(deps.FulfillSvc)
	voucherHandler := NewVoucherHandler(deps.VoucherSvc)

	fulfillments := v1.Group("/fulfillments", jwtAuth)
	{
		fulfillments.POST("/:ref", rl("operator"), fulfillmentHandler.Fulfill)
		fulfillments.POST("/:ref/resend", rl("operator"), fulfillmentHandler.Resend)
		fulfillments.GET("/:ref", rl("operator"), fulfillmentHandler.Get)
	}

	vouchers := v1.Group("/vouchers", jwtAuth)
	{
		vouchers.POST("/import", rl("operator"), voucherHandler.Import)
		vouchers.GET("/availability", rl("operator"), voucherHandler.Availability)
	}

	return r
}
