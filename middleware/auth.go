package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	tokenstore "AksaraAI/pkg/token"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
)

// ParseBearerToken validates an HS256 JWT and returns (userID, jti).
// Shared by the HTTP middleware and the websocket handshake, which
// carries its token in a query parameter instead of a header.
func ParseBearerToken(tokenStr, secret string, revocations *tokenstore.Revocations) (string, string, bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", false
	}

	jti, _ := claims["jti"].(string)
	if revocations.IsRevoked(jti) {
		return "", "", false
	}

	var userID string
	if sub, ok := claims["sub"].(string); ok {
		userID = sub
	} else if subf, ok := claims["sub"].(float64); ok {
		// jwt lib may parse numeric as float64
		userID = strconv.Itoa(int(subf))
	}
	if userID == "" {
		return "", "", false
	}
	return userID, jti, true
}

// Auth resolves the owner identity from the Authorization header and
// aborts with 401 when none can be resolved.
func Auth(secret string, revocations *tokenstore.Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, jti, ok := ParseBearerToken(parts[1], secret, revocations)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextJTIKey, jti)
		c.Next()
	}
}

// UserID reads the owner identity set by Auth as a uint.
func UserID(c *gin.Context) uint {
	raw, _ := c.Get(ContextUserIDKey)
	s, _ := raw.(string)
	id, _ := strconv.ParseUint(s, 10, 64)
	return uint(id)
}
