package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// WebSocket Message Types
const (
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeMessage  = "message"
	MessageTypeAck      = "message_ack"
	MessageTypeMarkRead = "mark_read"
	MessageTypeRead     = "read"
	MessageTypeMembers  = "members_added"
	MessageTypeChat     = "chat_created"
	MessageTypeError    = "error"
)

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	ChatID    string      `json:"chat_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewEvent(eventType, chatID string, data interface{}) WSMessage {
	return WSMessage{
		Type:      eventType,
		Data:      data,
		ChatID:    chatID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// AckData confirms a persisted message to its sender, keyed by client id.
type AckData struct {
	ClientID  string `json:"client_id"`
	MessageID string `json:"message_id"`
	CreatedAt string `json:"created_at"`
}

// ReadData is broadcast when a participant's read-mark advances.
type ReadData struct {
	UserID string `json:"user_id"`
	At     string `json:"at"`
}

type markReadData struct {
	At string `json:"at"`
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage struct {
		Type   string          `json:"type"`
		ChatID string          `json:"chat_id"`
		Data   json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		m.sendToClient(client, NewEvent(MessageTypePong, "", map[string]string{"status": "alive"}))

	case MessageTypeMarkRead:
		m.handleMarkRead(client, wsMessage.ChatID, wsMessage.Data)

	default:
		log.Printf("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) handleMarkRead(client *Client, chatID string, raw json.RawMessage) {
	if chatID == "" {
		m.sendErrorToClient(client, "Missing chat_id")
		return
	}

	at := time.Now()
	if len(raw) > 0 {
		var data markReadData
		if err := json.Unmarshal(raw, &data); err != nil {
			m.sendErrorToClient(client, "Invalid mark_read data")
			return
		}
		if data.At != "" {
			parsed, err := time.Parse(time.RFC3339Nano, data.At)
			if err != nil {
				m.sendErrorToClient(client, "Invalid mark_read timestamp")
				return
			}
			at = parsed
		}
	}

	m.mutex.RLock()
	inbound := m.inbound
	m.mutex.RUnlock()
	if inbound == nil {
		m.sendErrorToClient(client, "Read markers unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The use case broadcasts the resulting read event to participants.
	if _, err := inbound.MarkRead(ctx, client.UserID, chatID, at); err != nil {
		log.Printf("WebSocket: mark_read failed for %s in chat %s: %v", client.UserID, chatID, err)
		m.sendErrorToClient(client, "Failed to mark chat as read")
	}
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal message for client %s: %v", client.UserID, err)
		return
	}

	m.mutex.RLock()
	_, registered := m.clients[client.UserID][client]
	delivered := false
	if registered {
		select {
		case client.Send <- messageBytes:
			delivered = true
		default:
		}
	}
	m.mutex.RUnlock()

	if registered && !delivered {
		log.Printf("WebSocket: Client %s send channel full, closing connection", client.ID)
		m.removeClient(client)
	}
}

func (m *Manager) sendErrorToClient(client *Client, errorMsg string) {
	m.sendToClient(client, NewEvent(MessageTypeError, "", map[string]string{"error": errorMsg}))
}
