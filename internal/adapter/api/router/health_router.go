package router

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/adapter/api/handler"
	"outletchat/internal/infrastructure/metrics"
)

func SetupHealthRouter(e *echo.Echo, healthHandler *handler.HealthHandler) {
	e.GET("/health", healthHandler.CheckHealth)
	e.GET("/metrics", metrics.Handler())
}
