package server

import (
	"clueword-server/internal/match"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize = 64
	writeTimeout   = 10 * time.Second
)

// Client is one websocket connection. Outbound messages are queued on send
// and written by a single goroutine.
type Client struct {
	id     string
	socket *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(id string, socket *websocket.Conn) *Client {
	return &Client{
		id:     id,
		socket: socket,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// kick closes the socket, which ends the read loop of the connection.
func (c *Client) kick(code websocket.StatusCode, reason string) {
	c.close()
	go c.socket.Close(code, reason)
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.socket.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.close()
				return
			}
		}
	}
}

// ConnectionManager tracks live clients and delivers engine events to them.
type ConnectionManager struct {
	clients map[string]*Client // connectionID → client
	log     zerolog.Logger
	mu      sync.RWMutex
}

func NewConnectionManager(log zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
		log:     log.With().Str("component", "connections").Logger(),
	}
}

func (cm *ConnectionManager) AddConnection(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.id] = c
}

func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	c, ok := cm.clients[id]
	delete(cm.clients, id)
	cm.mu.Unlock()

	if ok {
		c.close()
	}
}

func (cm *ConnectionManager) GetConnection(id string) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[id]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// Send queues msg for connID without blocking. A client whose buffer is full
// is disconnected.
func (cm *ConnectionManager) Send(connID string, msg match.Message) {
	c := cm.GetConnection(connID)
	if c == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		cm.log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal message")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		cm.log.Warn().Str("conn", connID).Msg("send buffer full, dropping connection")
		c.kick(websocket.StatusPolicyViolation, "send buffer full")
	}
}

// Kick closes the socket of connID if it is still open.
func (cm *ConnectionManager) Kick(connID string, reason string) {
	if c := cm.GetConnection(connID); c != nil {
		c.kick(websocket.StatusGoingAway, reason)
	}
}

// CloseAll disconnects every client.
func (cm *ConnectionManager) CloseAll(reason string) {
	cm.mu.RLock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, c := range cm.clients {
		clients = append(clients, c)
	}
	cm.mu.RUnlock()

	for _, c := range clients {
		c.kick(websocket.StatusGoingAway, reason)
	}
}
