// README: Request logging middleware writing through the service logger.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"mobility-pricing/internal/logger"
)

func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Errorw("http request", fields...)
		case c.Writer.Status() >= 400:
			log.Warnw("http request", fields...)
		default:
			log.Infow("http request", fields...)
		}
	}
}
