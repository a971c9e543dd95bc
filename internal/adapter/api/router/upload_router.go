package router

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/adapter/api/handler"
	"outletchat/internal/adapter/api/middleware"
	"outletchat/internal/infrastructure/ratelimit"
)

func SetupUploadRouter(e *echo.Echo, uploadHandler *handler.UploadHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	uploads := e.Group("/api/uploads")

	uploads.POST("", uploadHandler.Upload, authMiddleware.Authenticate, middleware.RateLimit(limiter, ratelimit.ActionUpload))
	// Audio elements cannot send headers; ids are unguessable uuids.
	uploads.GET("/audio/:id", uploadHandler.ResolveAudio)
}
