package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"giftchain.backend/internal/interfaces/http/handlers"
	"giftchain.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "giftchain-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	giftHandler         *handlers.GiftHandler
	verificationHandler *handlers.VerificationHandler
	userHandler         *handlers.UserHandler
	tokenValidator      middleware.TokenValidator
	idempotencyStore    middleware.IdempotencyStore
	metricsGatherer     prometheus.Gatherer
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, d.metricsGatherer)
	registerAPIV1Routes(r, d)
	return r
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	requireAuth := middleware.AuthMiddleware(d.tokenValidator)
	optionalAuth := middleware.OptionalAuthMiddleware(d.tokenValidator)
	idempotent := middleware.IdempotencyMiddleware(d.idempotencyStore)

	v1 := r.Group("/api/v1")
	{
		gifts := v1.Group("/gifts")
		{
			gifts.POST("", requireAuth, idempotent, d.giftHandler.CreateGift)
			gifts.POST("/verify", optionalAuth, idempotent, d.verificationHandler.VerifyGifts)
			gifts.DELETE("/unverified", requireAuth, d.giftHandler.DeleteStaleUnverified)
			gifts.GET("/sent/:address", optionalAuth, d.giftHandler.ListSent)
			gifts.GET("/received/:address", optionalAuth, d.giftHandler.ListReceived)
			gifts.GET("/:id", optionalAuth, d.giftHandler.GetGift)
			gifts.POST("/:id/open", requireAuth, d.giftHandler.OpenGift)
		}

		users := v1.Group("/users")
		{
			users.GET("/:address/stats", d.userHandler.GetStats)
		}
	}
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
