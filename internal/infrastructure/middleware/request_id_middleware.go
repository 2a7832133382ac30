package middleware

import (
	"huddle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware tags every request with an id, echoed in the
// X-Request-ID response header and attached to the request context for
// context-aware logging.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))

		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
