package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, requestTimeout time.Duration, telemetryEnabled bool, serviceName string) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	// Add OpenTelemetry middleware if enabled
	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware(serviceName))
	}

	r.Use(ginZapLogger(l))
	r.Use(timeout(requestTimeout))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	v1.GET("/tile/:z/:x/:y", handler.Tile)

	viewport := v1.Group("/viewport")
	viewport.GET("", handler.Viewport)
	viewport.POST("/pan", handler.Pan)
	viewport.POST("/zoom", handler.Zoom)
	viewport.POST("/center", handler.Center)
	viewport.POST("/resize", handler.Resize)

	v1.GET("/filters", handler.Filters)
	v1.PUT("/filter", handler.SetFilter)

	v1.GET("/files", handler.Files)
	v1.POST("/files", handler.AddFile)
	v1.DELETE("/files/:id", handler.RemoveFile)

	v1.GET("/selection", handler.Selection)
	v1.PUT("/selection", handler.UpdateSelection)
	v1.POST("/heatmap", handler.Heatmap)

	v1.GET("/cache/stats", handler.CacheStats)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}

// timeout bounds every request context by d. Zero disables the bound.
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
