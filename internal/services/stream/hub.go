// Package stream транслирует события прогонов websocket-клиентам.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iwtcode/probeStation/internal/config"
	"github.com/iwtcode/probeStation/internal/interfaces"
	"github.com/iwtcode/probeStation/internal/middleware/logging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

type client struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub - рассылка только на запись: входящие сообщения клиентов читаются ради
// pong и закрытия соединения и отбрасываются.
type Hub struct {
	upgrader     websocket.Upgrader
	logger       *logging.Logger
	pingInterval time.Duration
	buffer       int

	mu      sync.RWMutex
	clients map[uint64]*client
	nextID  uint64
	closed  bool
}

func NewHub(cfg *config.AppConfig, logger *logging.Logger) interfaces.StreamHub {
	ping := cfg.Stream.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	buffer := cfg.Stream.ClientBuffer
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       logger.WithPrefix("WS"),
		pingInterval: ping,
		buffer:       buffer,
		clients:      make(map[uint64]*client),
	}
}

// Broadcast ставит сообщение в очередь каждого клиента. Медленный клиент теряет
// сообщения, но не задерживает измерение.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		case <-c.done:
		default:
			h.logger.Warn("Dropping message, client queue is full", "client", c.id)
		}
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.nextID++
	c := &client{
		id:   h.nextID,
		conn: conn,
		send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected", "client", c.id, "remote", r.RemoteAddr)
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[uint64]*client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		c.close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.logger.Info("WebSocket client disconnected", "client", c.id)
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	pongWait := 2 * h.pingInterval
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "client", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("WebSocket write error", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
