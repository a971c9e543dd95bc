package handler

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/usecase"
)

var (
	chatHandler      *ChatHandler
	uploadHandler    *UploadHandler
	pushTokenHandler *PushTokenHandler
)

func Setup(
	chatUseCase *usecase.ChatUseCase,
	uploadUseCase *usecase.UploadUseCase,
	notificationUseCase *usecase.NotificationUseCase,
) {
	chatHandler = NewChatHandler(chatUseCase)
	uploadHandler = NewUploadHandler(uploadUseCase)
	pushTokenHandler = NewPushTokenHandler(notificationUseCase)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

func GetPushTokenHandler() *PushTokenHandler {
	return pushTokenHandler
}

func getUserIDFromContext(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok {
		return uid
	}
	return ""
}
