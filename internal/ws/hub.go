package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; CORS is enforced on the HTTP routes
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is the one viewer connection driving a board
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	viewerID   string
	boardToken string
	session    *game.Session
	send       chan []byte

	lastPresence time.Time
}

// Hub maintains the active viewer connection of every board
type Hub struct {
	clients    map[string]*Client // board token -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex

	rdb         *redis.Client // optional; viewer presence
	presenceTTL time.Duration
}

// NewHub creates a new Hub. rdb may be nil.
func NewHub(rdb *redis.Client, presenceTTL time.Duration) *Hub {
	if presenceTTL <= 0 {
		presenceTTL = 90 * time.Second
	}
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		rdb:         rdb,
		presenceTTL: presenceTTL,
	}
}

// Run registers and unregisters clients until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.boardToken]; exists {
				log.Printf("[WS] Board %s has a new viewer - closing old connection", client.boardToken)
				if err := old.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(writeWait)); err != nil {
					log.Printf("[WS] Error writing close control to old viewer %s: %v", old.viewerID, err)
				}
				close(old.send)
				go releasePointers(old.session)
			}
			h.clients[client.boardToken] = client
			h.mu.Unlock()

			log.Printf("[WS] Viewer %s connected to board %s", client.viewerID, client.boardToken)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.boardToken]; ok && cur == client {
				delete(h.clients, client.boardToken)
				close(client.send)
				log.Printf("[WS] Viewer %s disconnected from board %s", client.viewerID, client.boardToken)
				h.clearPresence(client.boardToken)
				go releasePointers(client.session)
			}
			h.mu.Unlock()
		}
	}
}

// add hands c to the Run loop. It reports false once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// forward runs fn while c is still its board's viewer. Replacement takes the
// write lock, so anything forwarded reaches the board before the old viewer's
// drags are released.
func (h *Hub) forward(c *Client, fn func() error) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if cur, ok := h.clients[c.boardToken]; !ok || cur != c {
		return false, nil
	}
	return true, fn()
}

// releasePointers ends a lost viewer's drags without launching
func releasePointers(s *game.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.ReleasePointers(ctx); err != nil && !errors.Is(err, game.ErrBoardClosed) {
		log.Printf("[WS] Failed to release pointers on %s: %v", s.Token, err)
	}
}

// BroadcastToBoard sends a message to the viewer of a board
func (h *Hub) BroadcastToBoard(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[token]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] Send buffer full for board %s, dropping message", token)
		}
	}
}

// sendTo delivers a message to c if it is still the board's registered viewer
func (h *Hub) sendTo(c *Client, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if cur, ok := h.clients[c.boardToken]; ok && cur == c {
		select {
		case c.send <- data:
		default:
			log.Printf("[WS] Send buffer full for viewer %s, dropping message", c.viewerID)
		}
	}
}

// CloseBoardRoom disconnects the viewer of a closed board
func (h *Hub) CloseBoardRoom(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[token]; exists {
		delete(h.clients, token)
		close(client.send)
		h.clearPresence(token)
	}
}

// Connected reports whether a board currently has a viewer on this instance
func (h *Hub) Connected(token string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[token]
	return ok
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for token, client := range h.clients {
		delete(h.clients, token)
		close(client.send)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Best-effort close frame; the conn may already be gone.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for board %s: %v", c.boardToken, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for board %s: %v", c.boardToken, err)
				return
			}
		}
	}
}

// readPump reads viewer input until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for board %s: %v", c.boardToken, err)
			}
			break
		}

		c.hub.touchPresence(c, false)

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.hub.sendTo(c, map[string]interface{}{
		"type": "error",
		"data": map[string]string{"message": message},
	})
}
