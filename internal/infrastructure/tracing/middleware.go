package tracing

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		ctx, span := tracer.StartSpan(c.Request.Context(), "http "+path,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", path),
		)
		c.Request = c.Request.WithContext(ctx)

		if traceID := GetTraceID(ctx); traceID != "" {
			c.Header("X-Trace-ID", traceID)
			c.Header("X-Span-ID", GetSpanID(ctx))
		}

		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		tracer.Finish(span, err)
	}
}
