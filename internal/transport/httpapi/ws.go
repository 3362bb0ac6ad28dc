package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/EricWvi/sonora-player/internal/domain/queue"
)

const (
	// writeWait bounds a single write to a client connection.
	writeWait = 10 * time.Second

	// sendBufferSize is how many pending pushes a client may fall behind
	// before the hub drops it.
	sendBufferSize = 16
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateMessage is the envelope pushed to WebSocket clients.
type stateMessage struct {
	Type   string       `json:"type"`
	Status queue.Status `json:"status"`
}

// wsClient is one connected WebSocket peer. The hub never writes to the
// connection directly; it queues on send and writePump drains it, so a
// stalled peer can never block event delivery for the others.
type wsClient struct {
	conn *websocket.Conn
	send chan stateMessage
}

// writePump drains the send channel onto the connection. Every write gets
// a deadline so a wedged peer errors out instead of blocking forever.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	// The hub closed the channel; tell the peer before hanging up.
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// hub tracks connected WebSocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
}

func newHub() *hub {
	return &hub{
		clients: make(map[*wsClient]bool),
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

// remove unregisters a client. Closing the send channel stops its
// writePump, which closes the connection.
func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues a message for every client. A client whose buffer is
// full is not keeping up and gets dropped.
func (h *hub) broadcast(msg stateMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Debug().Msg("Dropping slow WebSocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// handleWebSocket upgrades the connection, queues the current state, then
// keeps the client registered for pushes until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan stateMessage, sendBufferSize)}

	// Queued before registration so the snapshot precedes any broadcast.
	client.send <- stateMessage{Type: "state", Status: s.controller.Status()}

	s.hub.add(client)
	defer s.hub.remove(client)
	go client.writePump()

	// Drain reads so pings are answered and closes are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
