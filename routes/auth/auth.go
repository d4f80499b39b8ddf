package auth

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/controllers"
	tokenstore "AksaraAI/pkg/token"
)

// RegisterPublic registers public auth routes: /register, /login
func RegisterPublic(r *gin.Engine, db *gorm.DB, jwtSecret string) {
	r.POST("/register", controllers.Register(db))
	r.POST("/login", controllers.Login(db, jwtSecret))
}

// RegisterProtected registers protected auth routes (e.g. logout)
func RegisterProtected(g *gin.RouterGroup, revocations *tokenstore.Revocations) {
	g.POST("/logout", controllers.Logout(revocations))
}
