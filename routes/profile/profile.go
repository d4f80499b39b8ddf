package profile

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/controllers"
	"AksaraAI/pkg/store"
)

// Register registers protected profile routes on supplied router group
// expects the group to already have the auth middleware applied
func Register(g *gin.RouterGroup, db *gorm.DB, st *store.Store) {
	g.GET("/profile", controllers.Profile(db))
	g.PUT("/profile", controllers.Profile(db))
	g.DELETE("/profile", controllers.DeleteAccount(db, st))
}
