package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		// Use the route template so path parameters do not explode cardinality
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(method, path, status, time.Since(start))
	}
}

// Timer measures HLE request duration
type Timer struct {
	start   time.Time
	metrics *Metrics
	service string
	command string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, service, command string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		service: service,
		command: command,
	}
}

// Stop stops the timer and records the request with its result
func (t *Timer) Stop(result string) {
	t.metrics.RecordIPCRequest(t.service, t.command, result, time.Since(t.start))
}
