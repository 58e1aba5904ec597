package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"mess-backend/config"
	"mess-backend/database"
	"mess-backend/handlers"
	"mess-backend/middleware"
	"mess-backend/services"
	"mess-backend/storage/postgres"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db := database.Connect(cfg.DatabaseURL)
	store := postgres.New(db)

	// Connect to Redis (optional, falls back to in-process cache)
	var cache services.SummaryCache
	if redisClient := database.ConnectRedis(cfg.RedisURL); redisClient != nil {
		cache = services.NewRedisSummaryCache(redisClient)
	} else {
		cache = services.NewMemorySummaryCache()
	}

	// Services
	notify := services.NewNotificationService(cfg, store)
	finance := services.NewFinanceService(store, cache, notify)
	summaries := services.NewSummaryService(store, cache)
	messes := services.NewMessService(store, cache, notify)

	// Handlers
	authHandler := handlers.NewAuthHandler(store, messes, cfg.JWTSecret)
	messHandler := handlers.NewMessHandler(messes)
	costHandler := handlers.NewCostHandler(finance)
	bazarHandler := handlers.NewBazarHandler(finance)
	mealHandler := handlers.NewMealHandler(finance)
	paymentHandler := handlers.NewPaymentHandler(finance)
	summaryHandler := handlers.NewSummaryHandler(summaries, finance)
	activityHandler := handlers.NewActivityHandler(messes)

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		// User
		api.GET("/users/me", authHandler.Me)
		api.PUT("/users/me/fcm-token", authHandler.UpdateFCMToken)

		// Messes and membership
		api.POST("/messes", messHandler.Create)
		api.GET("/messes/:id", messHandler.Get)
		api.POST("/messes/:id/join", messHandler.Join)
		api.GET("/messes/:id/requests", messHandler.PendingRequests)
		api.POST("/messes/:id/members/approve", messHandler.ApproveMember)
		api.DELETE("/messes/:id/members/:userId", messHandler.RemoveMember)
		api.POST("/messes/:id/roles", messHandler.AssignRole)
		api.DELETE("/messes/:id/roles", messHandler.RemoveRole)
		api.POST("/messes/:id/invite", messHandler.Invite)

		// Service costs (house account)
		api.POST("/messes/:id/costs", costHandler.Create)
		api.GET("/messes/:id/costs", costHandler.List)
		api.PUT("/messes/:id/costs/:costId/status", costHandler.SetStatus)
		api.DELETE("/messes/:id/costs/:costId", costHandler.Delete)

		// Bazar entries (meal account)
		api.POST("/messes/:id/bazar", bazarHandler.Create)
		api.GET("/messes/:id/bazar", bazarHandler.List)
		api.PUT("/messes/:id/bazar/:entryId", bazarHandler.Update)
		api.PUT("/messes/:id/bazar/:entryId/status", bazarHandler.SetStatus)
		api.DELETE("/messes/:id/bazar/:entryId", bazarHandler.Delete)

		// Meal logs
		api.POST("/messes/:id/meals", mealHandler.Log)
		api.GET("/messes/:id/meals", mealHandler.List)

		// Payments
		api.POST("/messes/:id/payments", paymentHandler.Create)
		api.GET("/messes/:id/payments", paymentHandler.List)

		// Monthly summary and locks
		api.GET("/messes/:id/summary/:month", summaryHandler.Get)
		api.POST("/messes/:id/lock/:month", summaryHandler.LockMonth)
		api.DELETE("/messes/:id/lock/:month", summaryHandler.UnlockMonth)

		// Activity
		api.GET("/messes/:id/activity", activityHandler.List)
	}

	// Start server
	addr := "0.0.0.0:" + cfg.Port
	log.Printf("🚀 %s server starting on %s", cfg.AppName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
