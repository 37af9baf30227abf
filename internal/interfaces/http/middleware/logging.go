package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// Logger logs one line per request. Health and metrics probes log at debug.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}

		if requestID := GetRequestID(c); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if operatorID, ok := GetOperatorID(c); ok {
			args = append(args, "operator_id", operatorID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		case c.FullPath() == "/health" || c.FullPath() == "/metrics":
			log.Debugw("HTTP request completed successfully", args...)
		default:
			log.Infow("HTTP request completed successfully", args...)
		}
	}
}
