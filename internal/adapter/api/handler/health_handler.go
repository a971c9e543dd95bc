package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	pushEnabled func() bool
	connections func() int
	busMode     string
}

func NewHealthHandler(pushEnabled func() bool, connections func() int, busMode string) *HealthHandler {
	return &HealthHandler{
		pushEnabled: pushEnabled,
		connections: connections,
		busMode:     busMode,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	push := "disabled"
	if h.pushEnabled != nil && h.pushEnabled() {
		push = "enabled"
	}

	connections := 0
	if h.connections != nil {
		connections = h.connections()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "Server is running",
		"time":           time.Now().Format(time.RFC3339),
		"push":           push,
		"events":         h.busMode,
		"ws_connections": connections,
	})
}
