package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"huddle/internal/core/domain"
	"huddle/internal/core/services"
	"huddle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key under which AuthMiddleware
// stores the authenticated user id.
const ContextUserID = "user_id"

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set("handle", claims.Handle)
		c.Request = c.Request.WithContext(
			logger.WithUserID(c.Request.Context(), strconv.FormatInt(int64(claims.UserID), 10)))
		c.Next()
	}
}

// ActorID extracts the authenticated user id placed by AuthMiddleware.
func ActorID(c *gin.Context) (domain.UserID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(domain.UserID)
	return id, ok
}
