package telemetry

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jaennil/guide_helper/backend/mapcore"

var untracedPaths = map[string]struct{}{
	"/api/v1/healthz": {},
	"/metrics":        {},
}

// GinMiddleware opens one server span per API request. Tile routes carry
// their z/x/y as span attributes.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		if _, skip := untracedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.HTTPRequestMethodKey.String(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.URLPath(c.Request.URL.Path),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
				semconv.ClientAddress(c.ClientIP()),
			),
		)
		defer span.End()

		span.SetAttributes(tileAttributes(c)...)

		c.Request = c.Request.WithContext(ctx)
		propagator.Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPResponseStatusCode(status),
			attribute.Int("http.response.size", c.Writer.Size()),
		)
		if source := c.Writer.Header().Get("X-Tile-Source"); source != "" {
			span.SetAttributes(attribute.String("tile.source", source))
		}

		switch {
		case len(c.Errors) > 0:
			span.RecordError(c.Errors.Last())
			span.SetStatus(codes.Error, c.Errors.String())
		case status >= 500:
			span.SetStatus(codes.Error, strconv.Itoa(status))
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

func tileAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, name := range []string{"z", "x", "y"} {
		raw := c.Param(name)
		if raw == "" {
			continue
		}
		if v, err := strconv.Atoi(raw); err == nil {
			attrs = append(attrs, attribute.Int("tile."+name, v))
		}
	}
	return attrs
}
