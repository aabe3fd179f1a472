package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
)

// Logging returns a request logging middleware backed by the structured
// logger.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.L().Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
