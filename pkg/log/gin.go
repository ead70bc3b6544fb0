package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware logs every completed request through zerolog instead
// of gin's stock writer. It assigns each request an id (honoring an
// inbound X-Request-ID), attaches a request-scoped logger to the
// request context for Ctx, and echoes the id back in the response.
func GinMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		scoped := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), scoped))

		c.Next()

		// Actor fields only exist once the auth middleware has run.
		evt := scoped.Info().
			Int(FieldStatus, c.Writer.Status()).
			Int64(FieldLatency, time.Since(start).Milliseconds())

		if v, ok := c.Get(FieldUserID); ok {
			if id, ok := v.(uint); ok {
				evt = evt.Uint(FieldUserID, id)
			}
		}
		if v, ok := c.Get(FieldUsername); ok {
			if name, ok := v.(string); ok {
				evt = evt.Str(FieldUsername, name)
			}
		}

		evt.Msg("request completed")
	}
}
