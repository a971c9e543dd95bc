package router

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/adapter/api/handler"
	"outletchat/internal/adapter/api/middleware"
	"outletchat/internal/infrastructure/ratelimit"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	chatGroup := e.Group("/api/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	createLimit := middleware.RateLimit(limiter, ratelimit.ActionCreateChat)

	chatGroup.POST("/direct", chatHandler.CreateDirectChat, createLimit)
	chatGroup.POST("/group", chatHandler.CreateGroupChat, createLimit)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	chatGroup.POST("/:id/members", chatHandler.AddMembers)
	chatGroup.GET("/:id/members/options", chatHandler.GetAddMemberOptions)

	// send_message is limited inside the use case so websocket clients share the bucket
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)

	outletGroup := e.Group("/api/outlets")
	outletGroup.Use(authMiddleware.Authenticate)
	outletGroup.POST("/:id/chat", chatHandler.EnsureOutletChat, createLimit)
}
