package http

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request id.
const ContextKeyRequestID = "request_id"

// RequestID returns the id assigned to this request, empty when the
// logging middleware did not run.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// RequestLogMiddleware assigns each request a uuid, echoes it in the
// X-Request-ID response header, and logs method, path, status, and
// duration on completion. Store failures logged by the handlers carry the
// same id, so one request's operations can be correlated.
func RequestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.Printf("%s %s -> %d (%s) [request %s]",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Round(time.Millisecond),
			requestID,
		)
	}
}
