package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/divyamcodes2/Chat-and-Chai/internal/middleware"
	"github.com/divyamcodes2/Chat-and-Chai/internal/model/chat"
	chatservice "github.com/divyamcodes2/Chat-and-Chai/internal/service/chat"
)

const (
	sendBufferSize = 256

	// writeWait bounds a single frame write; pongWait bounds silence from the
	// peer and pingPeriod keeps it below that.
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WebSocketHandler upgrades chat connections and pumps their events through
// the chat service.
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the websocket handler with the given origin
// policy guarding the upgrade.
func NewWebSocketHandler(chatSvc *chatservice.Service, policy *middleware.OriginPolicy) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.Allows,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// handleWebSocket upgrades the connection, resolves the display name, and
// runs the read loop until the client goes away.
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		username = guestUsername()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	c := newClient(conn)
	go c.writePump()

	// The handshake already succeeded; a registration failure is logged and
	// the socket stays open rather than dropping the user without feedback.
	if err := h.chatSvc.Connect(r.Context(), connID, username, c); err != nil {
		log.Printf("[websocket] connect failed for %s: %v", username, err)
	}
	log.Printf("[websocket] new connection %s for user %s", connID, username)

	h.readLoop(r.Context(), connID, c)
}

// readLoop reads frames until the connection dies, dispatching each event
// through an error boundary so one bad frame never ends the session.
func (h *WebSocketHandler) readLoop(ctx context.Context, connID string, c *client) {
	defer func() {
		h.chatSvc.Disconnect(ctx, connID)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error on %s: %v", connID, err)
			}
			return
		}
		if err := h.dispatch(ctx, connID, raw); err != nil {
			log.Printf("[websocket] %s: event dropped: %v", connID, err)
		}
	}
}

// dispatch decodes one inbound envelope and routes it. Panics in event
// handling are caught here so the connection loop keeps running.
func (h *WebSocketHandler) dispatch(ctx context.Context, connID string, raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in event handler: %v", r)
		}
	}()

	var env chat.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Event {
	case chat.EventJoin:
		var ref chat.RoomRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return fmt.Errorf("malformed join payload: %w", err)
		}
		return h.chatSvc.Join(ctx, connID, ref.Room)

	case chat.EventLeave:
		var ref chat.RoomRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return fmt.Errorf("malformed leave payload: %w", err)
		}
		return h.chatSvc.Leave(ctx, connID, ref.Room)

	case chat.EventMessage:
		var in chat.InboundMessage
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return fmt.Errorf("malformed message payload: %w", err)
		}
		return h.chatSvc.HandleMessage(ctx, connID, in)

	default:
		return fmt.Errorf("unknown event %q", env.Event)
	}
}

// client is one websocket connection. The write pump owns all writes; the
// rest of the system only enqueues onto the buffered send channel.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send enqueues a payload without blocking. A closed or saturated client
// reports false and the payload is dropped.
func (c *client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// guestUsername generates a display name for visitors who did not pick one,
// in the GuestHHMMNNNN format the chat page expects.
func guestUsername() string {
	return fmt.Sprintf("Guest%s%d", time.Now().Format("1504"), 1000+rand.IntN(9000))
}
