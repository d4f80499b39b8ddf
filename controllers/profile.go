package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	"AksaraAI/pkg/store"
	utils "AksaraAI/pkg/utills"
)

// Profile serves GET and PUT on /profile. PUT may change email,
// username, password and the custom system prompt used by the relay.
func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"id":            user.ID,
				"email":         user.Email,
				"username":      user.Username,
				"system_prompt": user.SystemPrompt,
			})
			return
		}

		// PUT
		var body struct {
			Email        string  `json:"email"`
			Username     string  `json:"username"`
			Password     string  `json:"password"`
			SystemPrompt *string `json:"system_prompt"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		newEmail := strings.TrimSpace(strings.ToLower(body.Email))
		if newEmail == "" {
			newEmail = user.Email
		}
		newUsername := strings.TrimSpace(body.Username)
		if newUsername == "" {
			newUsername = user.Username
		}

		if newEmail != user.Email {
			var t models.User
			if err := db.Where("email = ?", newEmail).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
				return
			}
		}
		if newUsername != user.Username {
			var t models.User
			if err := db.Where("username = ?", newUsername).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
				return
			}
		}

		user.Email = newEmail
		user.Username = newUsername
		if body.SystemPrompt != nil {
			user.SystemPrompt = strings.TrimSpace(*body.SystemPrompt)
		}
		if body.Password != "" {
			if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set password"})
				return
			}
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully"})
	}
}

// DeleteAccount removes the user's conversations (messages first) and
// then the user record itself.
func DeleteAccount(db *gorm.DB, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err := st.DeleteAllConversations(uid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversations"})
			return
		}
		if err := db.Unscoped().Delete(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Account deleted"})
	}
}
