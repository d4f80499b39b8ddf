package websocket

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/controllers"
	"AksaraAI/middleware"
	"AksaraAI/pkg/cache"
	"AksaraAI/pkg/config"
	"AksaraAI/pkg/services"
	"AksaraAI/pkg/store"
	tokenstore "AksaraAI/pkg/token"
)

func Register(r *gin.Engine, db *gorm.DB, st *store.Store, chat *services.ChatService, limiter *middleware.Limiter, cch *cache.Cache, cfg *config.Config, revocations *tokenstore.Revocations) {
	ws := &controllers.WSChat{
		DB:          db,
		Store:       st,
		Relay:       chat,
		Limiter:     limiter,
		Cache:       cch,
		CacheTTL:    time.Duration(cfg.ChatCacheTTLSeconds) * time.Second,
		JWTSecret:   cfg.JWTSecret,
		Revocations: revocations,
	}
	r.GET("/ws/chat", ws.Handle())
}
