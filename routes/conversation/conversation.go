package conversation

import (
	"github.com/gin-gonic/gin"

	"AksaraAI/controllers"
	"AksaraAI/middleware"
	"AksaraAI/pkg/store"
)

// Register registers conversation CRUD routes (protected).
func Register(g *gin.RouterGroup, st *store.Store, limiter *middleware.Limiter) {
	g.POST("/save_message", limiter.RateLimit(), controllers.SaveMessage(st))
	g.GET("/get_conversations", controllers.ListConversations(st))
	g.GET("/get_conversation/:conversation_id", controllers.GetConversation(st))
	// PUT is canonical; POST kept for older clients
	g.PUT("/update_title/:conversation_id", controllers.UpdateTitle(st))
	g.POST("/update_title/:conversation_id", controllers.UpdateTitle(st))
	g.DELETE("/delete_conversation/:conversation_id", controllers.DeleteConversation(st))
	g.DELETE("/delete_all_conversations", controllers.DeleteAllConversations(st))
}
