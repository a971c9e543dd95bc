package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"outletchat/internal/infrastructure/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Client represents a WebSocket connection client. One user may hold several
// connections (two tabs, phone and till).
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// InboundHandler receives the client frames that change server state.
type InboundHandler interface {
	MarkRead(ctx context.Context, userID, chatID string, at time.Time) (time.Time, error)
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	inbound    InboundHandler
	mutex      sync.RWMutex
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInboundHandler wires client frames (mark_read) to the chat use case.
func (m *Manager) SetInboundHandler(h InboundHandler) {
	m.mutex.Lock()
	m.inbound = h
	m.mutex.Unlock()
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)

			case client := <-m.Unregister:
				m.removeClient(client)

			case <-ctx.Done():
				m.closeAll()
				close(m.done)
				return
			}
		}
	}()
}

// RegisterClient hands a new connection to the main loop. It reports false
// once the manager has shut down.
func (m *Manager) RegisterClient(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// UnregisterClient hands a closed connection to the main loop. After shutdown
// closeAll has already released it, so the call returns immediately.
func (m *Manager) UnregisterClient(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) addClient(client *Client) {
	m.mutex.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
	m.mutex.Unlock()

	metrics.IncWSActive()
	log.Printf("WebSocket: Client registered: user=%s conn=%s", client.UserID, client.ID)
}

func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		m.mutex.Unlock()
		return
	}
	if _, present := conns[client]; !present {
		m.mutex.Unlock()
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(m.clients, client.UserID)
	}
	close(client.Send)
	m.mutex.Unlock()

	metrics.DecWSActive()
	log.Printf("WebSocket: Client unregistered: user=%s conn=%s", client.UserID, client.ID)
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for userID, conns := range m.clients {
		for client := range conns {
			close(client.Send)
			metrics.DecWSActive()
		}
		delete(m.clients, userID)
	}
}

// IsOnline reports whether the user has at least one open connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// ConnectionCount is the number of open connections across all users.
func (m *Manager) ConnectionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	n := 0
	for _, conns := range m.clients {
		n += len(conns)
	}
	return n
}

// SendToUser delivers an event to every connection of one user. Slow
// connections whose buffer is full are dropped.
func (m *Manager) SendToUser(userID string, event WSMessage) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal %s event: %v", event.Type, err)
		return
	}
	m.sendRaw(userID, payload)
}

// SendToUsers delivers one event to each listed user except skip.
func (m *Manager) SendToUsers(userIDs []string, skip string, event WSMessage) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal %s event: %v", event.Type, err)
		return
	}
	for _, userID := range userIDs {
		if userID == skip {
			continue
		}
		m.sendRaw(userID, payload)
	}
}

func (m *Manager) sendRaw(userID string, payload []byte) {
	var stale []*Client

	m.mutex.RLock()
	for client := range m.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			stale = append(stale, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range stale {
		log.Printf("WebSocket: Client %s send buffer full, dropping connection", client.ID)
		m.removeClient(client)
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.UnregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket: read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket: write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
