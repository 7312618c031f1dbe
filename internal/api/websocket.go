package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/logging"
)

// Message types for the websocket protocol. Clients subscribe to event
// channels by name (battery, status, clean_logs, map, ...), then receive
// one event message per update on each subscribed channel.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgPing        = "ping"
	msgPong        = "pong"
	msgEvent       = "event"
	msgResponse    = "response"
	msgError       = "error"
)

// Outbound messages queue here per client; a client that falls this far
// behind starts losing events rather than stalling everyone else.
const clientQueueSize = 256

// wsEnvelope is the frame exchanged with websocket clients in both
// directions.
type wsEnvelope struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// channelSelection is the payload of subscribe and unsubscribe messages.
type channelSelection struct {
	Channels []string `json:"channels"`
}

// Hub tracks connected websocket clients and fans events out to them.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// wsClient is one websocket connection with its channel subscriptions.
type wsClient struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte

	mu       sync.RWMutex
	channels map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.queue)
		if c.conn != nil {
			c.conn.Close()
		}
		delete(h.clients, c)
	}
}

func (h *Hub) attach(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// detach removes c and closes its queue. Whichever caller actually
// removes c from the map does the close, so a read-pump exit racing the
// hub shutdown cannot close the queue twice.
func (h *Hub) detach(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		close(c.queue)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// Broadcast delivers one event to every client subscribed to channel.
// Slow clients are skipped, never waited on.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(wsEnvelope{
		Type:      msgEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("broadcast marshal failed", "channel", channel, "error", err)
		return
	}

	// Snapshot under the hub lock; per-client subscription checks take the
	// client lock, and holding both invites ordering bugs.
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	recipients := 0
	for _, c := range clients {
		if c.subscribed(channel) {
			c.enqueue(data)
			recipients++
		}
	}
	if recipients > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", recipients)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		hub:      s.hub,
		conn:     conn,
		queue:    make(chan []byte, clientQueueSize),
		channels: make(map[string]struct{}),
	}
	s.hub.attach(c)

	go c.writeLoop(s.wsCfg)
	go c.readLoop(s.wsCfg)
}

func (c *wsClient) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	deadline := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any traffic proves the client is alive, including application
		// pings from browsers that never answer protocol pings.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(deadline))
		c.dispatch(data)
	}
}

func (c *wsClient) writeLoop(cfg config.WebSocketConfig) {
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.queue:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) dispatch(data []byte) {
	var msg wsEnvelope
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(wsEnvelope{Type: msgError, Payload: map[string]string{"message": "invalid JSON message"}})
		return
	}

	switch msg.Type {
	case msgSubscribe:
		c.updateChannels(msg, true)
	case msgUnsubscribe:
		c.updateChannels(msg, false)
	case msgPing:
		c.reply(wsEnvelope{Type: msgPong, ID: msg.ID})
	default:
		c.reply(wsEnvelope{
			Type:    msgError,
			ID:      msg.ID,
			Payload: map[string]string{"message": "unknown message type: " + msg.Type},
		})
	}
}

func (c *wsClient) updateChannels(msg wsEnvelope, add bool) {
	sel, err := decodeSelection(msg.Payload)
	if err != nil {
		c.reply(wsEnvelope{Type: msgError, ID: msg.ID, Payload: map[string]string{"message": "invalid channel payload"}})
		return
	}

	c.mu.Lock()
	for _, ch := range sel.Channels {
		if add {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	c.mu.Unlock()

	if add {
		c.hub.logger.Info("websocket client subscribed", "channels", sel.Channels)
		c.reply(wsEnvelope{Type: msgResponse, ID: msg.ID, Payload: map[string]any{"subscribed": sel.Channels}})
		return
	}
	c.reply(wsEnvelope{Type: msgResponse, ID: msg.ID, Payload: map[string]any{"unsubscribed": sel.Channels}})
}

// decodeSelection round-trips the loosely-typed payload into a channel
// list. Subscribe payloads arrive inside an already-decoded envelope, so
// there is no raw JSON left to unmarshal directly.
func decodeSelection(payload any) (channelSelection, error) {
	var sel channelSelection
	raw, err := json.Marshal(payload)
	if err != nil {
		return sel, err
	}
	err = json.Unmarshal(raw, &sel)
	return sel, err
}

func (c *wsClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

// enqueue hands data to the write loop without blocking. A full queue
// drops the message; a queue closed by a concurrent disconnect is
// absorbed.
func (c *wsClient) enqueue(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Send on closed queue loses a race with detach
	}()

	select {
	case c.queue <- data:
	default:
	}
}

func (c *wsClient) reply(msg wsEnvelope) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}
