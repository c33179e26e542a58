package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The
// catch-all proxy route is registered last so the reserved endpoints keep
// priority.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/edge/status", health.Status)

	e.Any("/*", proxy.Handle)
}
