package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	"AksaraAI/pkg/cache"
	"AksaraAI/pkg/config"
	"AksaraAI/pkg/services"
	"AksaraAI/pkg/store"
	tokenstore "AksaraAI/pkg/token"
	"AksaraAI/routes"
)

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	r := gin.Default()

	// CORS: the chat endpoints are called cross-origin from the web
	// client, so allow any origin and answer preflights.
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	deps := routes.Deps{
		DB:    db,
		Cfg:   cfg,
		Store: store.New(db),
		Chat:  services.NewChatService(cfg),
		Limiter: middleware.NewLimiter(
			time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
			cfg.RateLimitCapacity,
			cfg.UserConcurrencyLimit,
			time.Duration(cfg.DuplicateWindowSeconds)*time.Second,
		),
		Cache:       cache.New(cfg.ChatCacheMaxItems),
		Revocations: tokenstore.New(),
	}
	routes.RegisterRoutes(r, deps)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
