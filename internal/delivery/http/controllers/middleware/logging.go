package middleware

import (
	"SkillMarket/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoggingMiddleware logs one line per request. When the auth middleware ran
// first, the buyer's id is attached so payment verification attempts can be
// traced per user.
func LoggingMiddleware(log logger.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		fields := []interface{}{
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := c.Get(ClientIDCtx); ok {
			if userID, ok := id.(uuid.UUID); ok {
				fields = append(fields, "user_id", userID.String())
			}
		}

		log.Info(c.Request.Method+" "+path, fields...)

		for _, ginErr := range c.Errors {
			log.ErrorErr("request error", ginErr.Err,
				"method", c.Request.Method,
				"path", path,
				"status", c.Writer.Status(),
			)
		}
	}
}
