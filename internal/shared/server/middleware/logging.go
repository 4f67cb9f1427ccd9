package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docdocs-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if id := c.GetString("analysisId"); id != "" {
			fields["analysis_id"] = id
		}
		if name := c.GetString("fileName"); name != "" {
			fields["file_name"] = name
		}
		if score, ok := c.Get("score"); ok {
			fields["score"] = score
		}
		telemetry.Info("request.complete", fields)
	}
}
