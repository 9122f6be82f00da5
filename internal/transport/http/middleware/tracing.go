package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func Tracing(service string) gin.HandlerFunc {
	return otelgin.Middleware(service)
}

// EnrichTrace tags the active span with the request and session ids.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		span.SetAttributes(
			attribute.String("request.id", GetRequestID(c)),
			attribute.String("session.id", GetSessionID(c)),
		)
		c.Next()
		span.SetAttributes(attribute.Int("http.response.size", c.Writer.Size()))
	}
}
