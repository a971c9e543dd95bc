package usecase

import (
	ws "outletchat/internal/infrastructure/websocket"
)

// Realtime is the websocket fan-out the use cases push events through.
type Realtime interface {
	IsOnline(userID string) bool
	SendToUser(userID string, event ws.WSMessage)
	SendToUsers(userIDs []string, skip string, event ws.WSMessage)
}
