package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Native apps send no Origin; browsers are limited by CORS on the REST side
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	ID     uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
}

// WebSocketManager tracks live socket connections per user
type WebSocketManager struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	// a user may be connected from more than one session
	userClients map[uuid.UUID]map[*Client]bool
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewWebSocketManager(logger *zap.Logger) *WebSocketManager {
	return &WebSocketManager{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		userClients: make(map[uuid.UUID]map[*Client]bool),
		logger:      logger,
	}
}

// Run owns client registration until ctx is cancelled
func (m *WebSocketManager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return

		case client := <-m.register:
			m.mu.Lock()
			if _, ok := m.userClients[client.UserID]; !ok {
				m.userClients[client.UserID] = make(map[*Client]bool)
			}
			m.userClients[client.UserID][client] = true
			m.mu.Unlock()
			metrics.SocketClients.Inc()
			m.logger.Debug("Client registered", zap.String("userID", client.UserID.String()))

		case client := <-m.unregister:
			m.remove(client)
		}
	}
}

// Register hands a new client to Run. It reports false once Run has stopped.
func (m *WebSocketManager) Register(c *Client) bool {
	select {
	case m.register <- c:
		return true
	case <-m.done:
		return false
	}
}

func (m *WebSocketManager) remove(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userMap, ok := m.userClients[client.UserID]
	if !ok || !userMap[client] {
		return
	}
	delete(userMap, client)
	if len(userMap) == 0 {
		delete(m.userClients, client.UserID)
	}
	close(client.Send)
	metrics.SocketClients.Dec()
	m.logger.Debug("Client unregistered", zap.String("userID", client.UserID.String()))
}

func (m *WebSocketManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, clients := range m.userClients {
		for c := range clients {
			close(c.Send)
			metrics.SocketClients.Dec()
		}
		delete(m.userClients, userID)
	}
}

// Connected reports how many sockets a user has open
func (m *WebSocketManager) Connected(userID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.userClients[userID])
}

// SendToUser sends a message to a specific user's connected clients.
// Slow clients whose buffer is full miss the event; push covers them.
func (m *WebSocketManager) SendToUser(userID uuid.UUID, message interface{}) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		m.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for client := range m.userClients[userID] {
		select {
		case client.Send <- jsonMsg:
		default:
			m.logger.Warn("socket buffer full, event dropped", zap.String("userID", userID.String()))
		}
	}
}

func (c *Client) ReadPump(manager *WebSocketManager) {
	defer func() {
		select {
		case manager.unregister <- c:
		case <-manager.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// server to client only; reads keep the deadline and close detection alive
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.logger.Debug("socket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

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
			// one frame per event so the device can decode each independently
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
