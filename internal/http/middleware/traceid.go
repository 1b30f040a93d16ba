package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceRequestID copies the request ID onto the active trace span so traces
// and log lines can be joined on the same value. Mount it after RequestID and
// the tracing middleware. When nothing is recording spans it is a no-op.
func TraceRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid := RequestIDFromCtx(c); rid != "" {
			span := trace.SpanFromContext(c.UserContext())
			span.SetAttributes(attribute.String("request.id", rid))
		}
		return c.Next()
	}
}
