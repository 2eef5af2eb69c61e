package main

import (
	"log"
	"time"

	"flightmate/cache"
	"flightmate/config"
	"flightmate/database"
	"flightmate/handlers"
	"flightmate/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	cfg := config.Load()

	redisClient := cache.New(cfg)
	defer redisClient.Close()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	amadeus := services.NewAmadeusClient(cfg, redisClient)
	ai := services.NewAIClient(cfg)
	tavily := services.NewTavilyClient(cfg)
	pipeline := services.NewPipeline(amadeus, tavily)
	conversations := services.NewConversationStore(redisClient)

	h := handlers.New(ai, pipeline, conversations, db, redisClient)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Trusted proxies (Railway sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	// CORS — allow configured frontend origins
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	allowedOrigins = append(allowedOrigins, cfg.FrontendURLs...)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Routes
	api := r.Group("/api")
	{
		api.GET("/health", h.HealthHandler)
		api.POST("/chat", h.ChatHandler)
		api.POST("/generate", h.GenerateHandler)
		api.GET("/download/:id", h.DownloadHandler)
	}
	// Legacy clients post straight to /api.
	r.POST("/api", h.ChatHandler)

	log.Printf("🚀 Flightmate backend starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
