package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/pkg/cache"
	"AksaraAI/pkg/config"
	"AksaraAI/pkg/services"
	"AksaraAI/pkg/store"
	tokenstore "AksaraAI/pkg/token"

	authRoutes "AksaraAI/routes/auth"
	chatRoutes "AksaraAI/routes/chat"
	convRoutes "AksaraAI/routes/conversation"
	documentRoutes "AksaraAI/routes/document"
	profileRoutes "AksaraAI/routes/profile"
	websocketRoutes "AksaraAI/routes/websocket"
)

// Deps is everything built once in main and threaded into the route
// handlers; no package-level handles anywhere.
type Deps struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Store       *store.Store
	Chat        *services.ChatService
	Limiter     *middleware.Limiter
	Cache       *cache.Cache
	Revocations *tokenstore.Revocations
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Aksara AI backend running"})
	})

	websocketRoutes.Register(r, d.DB, d.Store, d.Chat, d.Limiter, d.Cache, d.Cfg, d.Revocations)
	authRoutes.RegisterPublic(r, d.DB, d.Cfg.JWTSecret)

	protected := r.Group("/")
	protected.Use(middleware.Auth(d.Cfg.JWTSecret, d.Revocations))
	authRoutes.RegisterProtected(protected, d.Revocations)
	profileRoutes.Register(protected, d.DB, d.Store)
	chatRoutes.Register(protected, d.DB, d.Chat, d.Limiter)
	convRoutes.Register(protected, d.Store, d.Limiter)
	documentRoutes.Register(protected, d.Limiter)
}
