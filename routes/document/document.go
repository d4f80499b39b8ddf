package document

import (
	"github.com/gin-gonic/gin"

	"AksaraAI/controllers"
	"AksaraAI/middleware"
)

// Register registers the document text-extraction endpoint (protected).
func Register(g *gin.RouterGroup, limiter *middleware.Limiter) {
	g.POST("/parse_document", limiter.RateLimit(), controllers.ParseDocument())
}
