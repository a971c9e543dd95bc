package router

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/adapter/api/handler"
	"outletchat/internal/adapter/api/middleware"
)

func SetupPushTokenRouter(e *echo.Echo, pushTokenHandler *handler.PushTokenHandler, authMiddleware *middleware.AuthMiddleware) {
	tokens := e.Group("/api/push-tokens")
	tokens.Use(authMiddleware.Authenticate)

	tokens.POST("", pushTokenHandler.Register)
	tokens.DELETE("", pushTokenHandler.Unregister)
}
