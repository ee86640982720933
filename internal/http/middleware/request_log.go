package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/ctxutil"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

// RequestLogger writes one line per request. Query strings are never logged
// because the OAuth callback carries the code and state there.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("Middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		ctx := c.Request.Context()
		if td := ctxutil.GetTraceData(ctx); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if user := ctxutil.UserID(ctx); user != "" {
			fields = append(fields, "user_id", user)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
