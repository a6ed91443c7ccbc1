package http

import (
	"net/http"

	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	authHandler      *handler.AuthHandler
	profileHandler   *handler.ProfileHandler
	discoveryHandler *handler.DiscoveryHandler
	bondingHandler   *handler.BondingHandler
	chatHandler      *handler.ChatHandler
	authMiddleware   *middleware.AuthMiddleware
	gatherer         prometheus.Gatherer
	log              *zap.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	discoveryHandler *handler.DiscoveryHandler,
	bondingHandler *handler.BondingHandler,
	chatHandler *handler.ChatHandler,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
	log *zap.Logger,
) *Router {
	return &Router{
		authHandler:      authHandler,
		profileHandler:   profileHandler,
		discoveryHandler: discoveryHandler,
		bondingHandler:   bondingHandler,
		chatHandler:      chatHandler,
		authMiddleware:   authMiddleware,
		gatherer:         gatherer,
		log:              log,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.log))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			profile := protected.Group("/profile")
			{
				profile.POST("/complete-onboarding", r.profileHandler.CompleteOnboarding)
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.PUT("/me", r.profileHandler.UpdateMyProfile)
				profile.DELETE("/me", r.profileHandler.DeleteMyProfile)
				profile.POST("/me/sync-reputation", r.profileHandler.SyncReputation)
				profile.GET("/:address", r.profileHandler.GetProfile)
			}

			protected.GET("/discovery/candidates", r.discoveryHandler.GetCandidates)

			bonds := protected.Group("/bonds")
			{
				bonds.GET("", r.bondingHandler.Overview)
				bonds.POST("/requests", r.bondingHandler.SendRequest)
				bonds.POST("/requests/:id/accept", r.bondingHandler.AcceptRequest)
				bonds.POST("/requests/:id/decline", r.bondingHandler.DeclineRequest)
				bonds.DELETE("/:id", r.bondingHandler.Unbond)
				bonds.GET("/:id/messages", r.chatHandler.ListMessages)
				bonds.POST("/:id/messages", r.chatHandler.SendMessage)
				bonds.POST("/:id/read", r.chatHandler.MarkRead)
				bonds.GET("/:id/ws", r.chatHandler.Stream)
			}

			blocks := protected.Group("/blocks")
			{
				blocks.GET("", r.bondingHandler.ListBlocked)
				blocks.POST("", r.bondingHandler.Block)
				blocks.DELETE("/:address", r.bondingHandler.Unblock)
			}

			protected.GET("/messages/unread", r.chatHandler.UnreadCount)
			protected.GET("/messages/ws", r.chatHandler.UserStream)
		}
	}

	return router
}
