package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/tracing"
)

// TraceIDHeader returns the active trace id to the caller
const TraceIDHeader = "X-Trace-ID"

// Tracing starts a server span per request and echoes its trace id
func Tracing(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			if id := tracing.TraceID(c.Request.Context()); id != "" {
				c.Header(TraceIDHeader, id)
			}
			c.Next()
		},
	}
}
