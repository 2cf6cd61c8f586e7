// Package client implements the push-channel protocol a consumer of
// the notification hub must speak: a supervised reconnect/backoff
// state machine, incremental event handling with duplicate
// suppression, and the periodic full reconciliation that recomputes
// derived state from the authoritative record set. Rendering is not
// this package's business; it only maintains protocol state.
package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zillah777/fixia.com.ar-sub001/internal/hub"
	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// ConnState is the connection lifecycle exposed as first-class data.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	// StateDegraded means the bounded reconnect budget is exhausted:
	// the runtime stops dialing and relies solely on polling.
	StateDegraded
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "disconnected"
	}
}

// API is the REST collaborator used for full reconciliations. GET is
// the only verb here, so a failed fetch is always safe to retry on the
// next tick.
type API interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
}

// Config tunes a Runtime. Zero values pick the recommended defaults:
// 1s..30s backoff, 8 attempts before degrading, 2m reconciliation while
// connected and 30s while not.
type Config struct {
	WSURL string // websocket endpoint, e.g. wss://host/ws
	Token string // opaque bearer credential

	API API

	MaxRetries         int
	ReconcileConnected time.Duration
	ReconcilePolling   time.Duration
	PingInterval       time.Duration
	PongWait           time.Duration

	Dialer *websocket.Dialer
}

func (c *Config) defaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 8
	}
	if c.ReconcileConnected == 0 {
		c.ReconcileConnected = 2 * time.Minute
	}
	if c.ReconcilePolling == 0 {
		c.ReconcilePolling = 30 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongWait == 0 {
		c.PongWait = 60 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
}

// Runtime keeps a local, advisory copy of the notification feed and
// unread count, synchronized against pushes and corrected by periodic
// authoritative fetches.
type Runtime struct {
	cfg     Config
	backoff Backoff

	mu               sync.Mutex
	state            ConnState
	notifications    []model.Notification // newest first
	seen             map[uint64]bool
	unread           int
	lastServerUnread int // last scalar the server pushed, for drift detection
	lastSync         time.Time

	writeMu sync.Mutex // guards data writes to the active conn
}

// NewRuntime builds a Runtime from cfg. cfg.API must be non-nil.
func NewRuntime(cfg Config) *Runtime {
	if cfg.API == nil {
		panic("nil API passed to client.NewRuntime")
	}
	cfg.defaults()
	return &Runtime{
		cfg:     cfg,
		backoff: Backoff{Base: time.Second, Max: 30 * time.Second},
		state:   StateDisconnected,
		seen:    make(map[uint64]bool),
	}
}

// State returns the current connection state.
func (r *Runtime) State() ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// UnreadCount returns the local unread counter. Between
// reconciliations it is a push-driven hint; after each reconciliation
// it equals the count derived from the authoritative record set.
func (r *Runtime) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread
}

// Notifications returns a copy of the local feed, newest first.
func (r *Runtime) Notifications() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

func (r *Runtime) setState(s ConnState) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.mu.Unlock()
	if prev != s {
		log.Printf("client: connection %s -> %s", prev, s)
	}
}

// Run drives the connection state machine and the reconciliation loop
// until ctx is cancelled. Degraded connectivity is not an error: the
// runtime keeps polling and Run only returns with ctx's error.
func (r *Runtime) Run(ctx context.Context) error {
	go r.reconcileLoop(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.setState(StateConnecting)
		conn, err := r.dial(ctx)
		if err != nil {
			delay := r.backoff.Next()
			if r.backoff.Attempts() > r.cfg.MaxRetries {
				// Budget exhausted: surface degraded connectivity and
				// rely solely on the polling reconciliation.
				r.setState(StateDegraded)
				<-ctx.Done()
				return ctx.Err()
			}
			log.Printf("client: dial failed (attempt %d): %v; retrying in %s", r.backoff.Attempts(), err, delay)
			r.setState(StateDisconnected)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		r.setState(StateConnected)
		r.backoff.Reset()
		r.sendSyncRequest(conn)
		r.readLoop(ctx, conn)
		conn.Close()
		r.setState(StateDisconnected)
	}
}

func (r *Runtime) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if r.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	conn, _, err := r.cfg.Dialer.DialContext(ctx, r.cfg.WSURL, header)
	return conn, err
}

// sendSyncRequest asks the server for everything newer than the last
// sync point. It is sent before incremental handling resumes so the
// gap covering the disconnect is filled first.
func (r *Runtime) sendSyncRequest(conn *websocket.Conn) {
	r.mu.Lock()
	var since *time.Time
	if !r.lastSync.IsZero() {
		t := r.lastSync
		since = &t
	}
	r.mu.Unlock()

	payload, _ := json.Marshal(hub.SyncRequestPayload{LastSyncTime: since})
	frame, _ := json.Marshal(hub.Frame{Type: hub.FrameSyncRequest, Data: payload})
	r.writeFrame(conn, frame)
}

func (r *Runtime) writeFrame(conn *websocket.Conn, frame []byte) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Printf("client: write failed: %v", err)
	}
}

// readLoop consumes frames until the connection dies. A keep-alive
// ping goes out every PingInterval; absence of any traffic within
// PongWait fails the pending read and tears the connection down.
func (r *Runtime) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(r.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				// WriteControl is safe concurrently with WriteMessage.
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("client: read failed: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))

		var frame hub.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("client: malformed frame: %v", err)
			continue
		}
		r.handleFrame(conn, frame)
	}
}

func (r *Runtime) handleFrame(conn *websocket.Conn, frame hub.Frame) {
	switch frame.Type {
	case hub.FrameConnectionConfirmed, hub.FramePong:
		// Nothing to do.
	case hub.FramePing:
		reply, _ := json.Marshal(hub.Frame{Type: hub.FramePong})
		r.writeFrame(conn, reply)
	case hub.FrameNotificationNew:
		var p hub.NotificationPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			log.Printf("client: malformed notification:new: %v", err)
			return
		}
		r.applyNew(p.Notification)
	case hub.FrameUnreadCount:
		var p hub.UnreadCountPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			log.Printf("client: malformed unread-count: %v", err)
			return
		}
		r.mu.Lock()
		// Server scalar is the fast path between reconciliations.
		r.unread = p.Count
		r.lastServerUnread = p.Count
		r.mu.Unlock()
	case hub.FrameSyncResponse:
		var p hub.SyncResponsePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			log.Printf("client: malformed sync-response: %v", err)
			return
		}
		r.mu.Lock()
		for i := len(p.Notifications) - 1; i >= 0; i-- {
			r.insertLocked(p.Notifications[i])
		}
		r.unread = p.UnreadCount
		r.lastServerUnread = p.UnreadCount
		r.lastSync = p.SyncedAt
		r.mu.Unlock()
	default:
		log.Printf("client: unknown frame type %q", frame.Type)
	}
}

// applyNew prepends a pushed record and bumps the unread hint. Pushes
// are at-least-once, so a record already seen is ignored rather than
// double-counted.
func (r *Runtime) applyNew(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[n.ID] {
		return
	}
	r.insertLocked(n)
	if !n.Read {
		r.unread++
	}
}

// insertLocked prepends unless the ID is already present. Callers hold mu.
func (r *Runtime) insertLocked(n model.Notification) {
	if r.seen[n.ID] {
		return
	}
	r.seen[n.ID] = true
	r.notifications = append([]model.Notification{n}, r.notifications...)
}

func (r *Runtime) reconcileLoop(ctx context.Context) {
	for {
		interval := r.cfg.ReconcilePolling
		if r.State() == StateConnected {
			interval = r.cfg.ReconcileConnected
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
				log.Printf("client: reconciliation failed: %v", err)
			}
		}
	}
}

// Reconcile replaces the local feed with a fresh authoritative fetch
// and recomputes the unread count from the fetched records themselves.
// A server-pushed scalar that drifted from the record set loses: the
// recomputed value wins and the discrepancy is logged.
func (r *Runtime) Reconcile(ctx context.Context) error {
	list, err := r.cfg.API.ListNotifications(ctx)
	if err != nil {
		return err
	}
	recomputed := 0
	for _, n := range list {
		if !n.Read {
			recomputed++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if recomputed != r.lastServerUnread {
		log.Printf("client: unread drift detected: server said %d, records say %d; preferring records",
			r.lastServerUnread, recomputed)
	}
	r.notifications = list
	r.seen = make(map[uint64]bool, len(list))
	for _, n := range list {
		r.seen[n.ID] = true
	}
	r.unread = recomputed
	r.lastServerUnread = recomputed
	r.lastSync = time.Now().UTC()
	return nil
}
