package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that continues an inbound trace (or
// starts a root) around each request and injects the resulting identity into
// the response headers.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if traceID, parentID, _, ok := Extract(c.Request.Header); ok {
			ctx = ContextWithTrace(ctx, traceID, parentID)
		}

		span, ctx := tracer.StartSpan(ctx, c.FullPath(), WithKind(KindServer))
		span.SetAttributes(map[string]any{
			"http.method": c.Request.Method,
			"http.url":    c.Request.URL.String(),
			"http.host":   c.Request.Host,
		})

		c.Request = c.Request.WithContext(ctx)

		Inject(span, c.Writer.Header())

		c.Next()

		status := c.Writer.Status()
		span.SetAttribute("http.status_code", status)
		if len(c.Errors) > 0 {
			span.RecordException(c.Errors.Last())
		} else if status >= 500 {
			span.SetStatus(StatusError, c.Writer.Header().Get("X-Error"))
		}

		tracer.End(span)
	}
}
