package chat

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/controllers"
	"AksaraAI/middleware"
	"AksaraAI/pkg/services"
)

// Register registers the streaming relay endpoint (protected).
func Register(g *gin.RouterGroup, db *gorm.DB, chat *services.ChatService, limiter *middleware.Limiter) {
	g.POST("/send_message", limiter.RateLimit(), controllers.SendMessage(db, chat))
}
