package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/shared/metrics"
	"trainee-backend/internal/shared/server/respond"
	"trainee-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope and an error log that
// carries the trainee or letter the request was working on.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanic()
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"method":     c.Request.Method,
				"route":      c.FullPath(),
			}
			for ctxKey, field := range contextFields {
				if v := c.GetString(ctxKey); v != "" {
					fields[field] = v
				}
			}
			telemetry.Error("http.panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
		}()
		c.Next()
	}
}
