package http

import (
	"net/http"
	"strconv"

	"huddle/internal/core/domain"
	"huddle/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// actor pulls the authenticated user id set by the auth middleware.
// It aborts with 401 when the request slipped past authentication.
func actor(c *gin.Context) (domain.UserID, bool) {
	id, ok := middleware.ActorID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return 0, false
	}
	return id, true
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "INPUT_ERROR",
			"message": param + " must be a positive integer",
		})
		return 0, false
	}
	return id, true
}
