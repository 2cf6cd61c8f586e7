package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	// writeWait bounds how long a single frame write may take.
	writeWait = 10 * time.Second
	// pongWait is the read deadline; any traffic (including pongs)
	// extends it. A silent peer is treated as disconnected.
	pongWait = 60 * time.Second
	// pingPeriod is the keep-alive interval while connected.
	pingPeriod = 30 * time.Second
	// maxMessageSize bounds client frames; clients only ever send
	// small control and sync-request frames.
	maxMessageSize = 4096
	// sendBuffer is the per-client outbound queue depth.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin is allowed; the bearer credential is the gate.
		return true
	},
}

// Client is one user's websocket connection.  The send channel is
// never closed: the hub pushes into it from arbitrary goroutines, and
// closing it would race those sends. Teardown goes through shutdown
// instead, which both pumps observe.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	userID uint64
}

// shutdown tears the connection down exactly once. Closing the
// underlying conn unblocks readPump; closing done unblocks writePump.
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump consumes client frames until the connection dies. It owns
// the read side: deadlines, pong handling, and the sync-request /
// application-level ping protocol.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.shutdown()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hub: user %d read error: %v", c.userID, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("hub: user %d sent malformed frame: %v", c.userID, err)
			continue
		}
		switch frame.Type {
		case FramePing:
			c.queue(mustFrame(FramePong, nil))
		case FrameSyncRequest:
			var req SyncRequestPayload
			if len(frame.Data) > 0 {
				if err := json.Unmarshal(frame.Data, &req); err != nil {
					log.Printf("hub: user %d sent malformed sync-request: %v", c.userID, err)
					continue
				}
			}
			c.handleSyncRequest(req)
		default:
			log.Printf("hub: user %d sent unknown frame type %q", c.userID, frame.Type)
		}
	}
}

// handleSyncRequest replays every notification newer than the client's
// last sync plus the authoritative unread count, computed from the
// record set at response time.
func (c *Client) handleSyncRequest(req SyncRequestPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	notifications, err := c.hub.store.ListByUser(ctx, c.userID, req.LastSyncTime)
	if err != nil {
		log.Printf("hub: sync-request list for user %d failed: %v", c.userID, err)
		return
	}
	count, err := c.hub.store.UnreadCount(ctx, c.userID)
	if err != nil {
		log.Printf("hub: sync-request count for user %d failed: %v", c.userID, err)
		return
	}
	c.queue(mustFrame(FrameSyncResponse, SyncResponsePayload{
		Notifications: notifications,
		UnreadCount:   count,
		SyncedAt:      time.Now().UTC(),
	}))
}

// queue enqueues a frame for writePump, dropping it when the buffer is
// full (the hub will notice on its next push and recycle the
// connection).
func (c *Client) queue(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

// writePump writes queued frames and keep-alive pings. One writePump
// per connection is the sole writer, which is what gorilla/websocket
// requires.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS returns the Echo handler that upgrades GET /ws connections.
// The channel authenticates once at connect time with the same bearer
// credential as the REST surface, taken from the Authorization header
// or an access_token query parameter (browsers cannot set headers on
// websocket dials).
func ServeWS(h *Hub, jwtSecret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authenticate(c, jwtSecret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		client := &Client{
			hub:    h,
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			done:   make(chan struct{}),
			userID: userID,
		}
		h.register <- client

		go client.writePump()
		go client.readPump()

		client.queue(mustFrame(FrameConnectionConfirmed, echo.Map{"user_id": userID}))
		// Authoritative unread count straight away so the client can
		// correct whatever it cached while offline.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if count, err := h.store.UnreadCount(ctx, userID); err == nil {
			client.queue(mustFrame(FrameUnreadCount, UnreadCountPayload{Count: count, UpdatedAt: time.Now().UTC()}))
		}
		return nil
	}
}

// authenticate validates the bearer credential and extracts the user
// ID from the sub claim.
func authenticate(c echo.Context, secret string) (uint64, error) {
	raw := ""
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	}
	if raw == "" {
		raw = c.QueryParam("access_token")
	}
	if raw == "" {
		return 0, echo.ErrUnauthorized
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, echo.ErrUnauthorized
	}
	switch sub := claims["sub"].(type) {
	case float64:
		return uint64(sub), nil
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return 0, echo.ErrUnauthorized
		}
		return id, nil
	}
	return 0, echo.ErrUnauthorized
}
