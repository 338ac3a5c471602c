package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key under which the request ID is
// stored. The envelope metadata and the attempt logs both read it from here.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID so a submission can be
// traced across the gateway and the upstream learning API. An inbound
// X-Request-ID is honored; otherwise a fresh UUID is minted. The ID is echoed
// back in the response header either way.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
