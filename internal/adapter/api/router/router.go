package router

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/adapter/api/handler"
	"outletchat/internal/adapter/api/middleware"
	"outletchat/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	SetupChatRouter(e, handler.GetChatHandler(), authMiddleware, limiter)
	SetupUploadRouter(e, handler.GetUploadHandler(), authMiddleware, limiter)
	SetupPushTokenRouter(e, handler.GetPushTokenHandler(), authMiddleware)
}
