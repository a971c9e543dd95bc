package handler

import (
	"github.com/labstack/echo/v4"

	"outletchat/internal/usecase"
	"outletchat/pkg/errors"
	"outletchat/pkg/response"
)

type PushTokenHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewPushTokenHandler(notificationUseCase *usecase.NotificationUseCase) *PushTokenHandler {
	return &PushTokenHandler{
		notificationUseCase: notificationUseCase,
	}
}

type pushTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=web android ios"`
}

func (h *PushTokenHandler) Register(c echo.Context) error {
	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.notificationUseCase.RegisterToken(c.Request().Context(), getUserIDFromContext(c), req.Token, req.Platform); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "registered"})
}

func (h *PushTokenHandler) Unregister(c echo.Context) error {
	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.notificationUseCase.UnregisterToken(c.Request().Context(), req.Token); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "unregistered"})
}
