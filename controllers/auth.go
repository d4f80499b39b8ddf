package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	tokenstore "AksaraAI/pkg/token"
	utils "AksaraAI/pkg/utills"
)

// Register handler
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email           string `json:"email"`
			Username        string `json:"username"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		email := strings.TrimSpace(strings.ToLower(body.Email))
		username := strings.TrimSpace(body.Username)

		if email == "" || username == "" || body.Password == "" || body.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email, username, password, and confirm password are required"})
			return
		}
		if body.Password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
			return
		}
		if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must contain at least one letter and one number"})
			return
		}

		var exists models.User
		if err := db.Where("email = ? OR username = ?", email, username).First(&exists).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or username already exists"})
			return
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		user := models.User{Email: email, Username: username}
		if err := user.SetPassword(body.Password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set password"})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"msg": "User created", "username": user.Username, "email": user.Email})
	}
}

// Login handler: verifies credentials and issues a 24h HS256 JWT.
func Login(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		email := strings.TrimSpace(strings.ToLower(body.Email))
		if email == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if !user.CheckPassword(body.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		jti := uuid.NewString()
		claims := jwt.MapClaims{
			"sub": strconv.Itoa(int(user.ID)),
			"exp": time.Now().Add(24 * time.Hour).Unix(),
			"jti": jti,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": tokenStr, "username": user.Username})
	}
}

// Logout handler: revokes the token's jti.
func Logout(revocations *tokenstore.Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		jti, _ := c.Get(middleware.ContextJTIKey)
		if s, ok := jti.(string); ok && s != "" {
			revocations.Revoke(s)
		}
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}
