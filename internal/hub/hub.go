package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// NotificationReader is the read surface the hub needs to answer
// sync-requests and to push the authoritative unread count on connect.
type NotificationReader interface {
	ListByUser(ctx context.Context, userID uint64, since *time.Time) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
}

// Hub maintains the set of active clients keyed by user ID. A second
// connection for the same user replaces the first; the replaced
// connection is closed.
type Hub struct {
	store NotificationReader

	clients    map[uint64]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

// New constructs a Hub backed by the given notification reader.
func New(store NotificationReader) *Hub {
	return &Hub{
		store:      store,
		clients:    make(map[uint64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register/unregister traffic until ctx is cancelled.
// It must run in its own goroutine before any connection is served.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.lock.Lock()
			for _, c := range h.clients {
				c.shutdown()
			}
			h.clients = make(map[uint64]*Client)
			h.lock.Unlock()
			return ctx.Err()
		case client := <-h.register:
			h.lock.Lock()
			if prev, ok := h.clients[client.userID]; ok {
				prev.shutdown()
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			log.Printf("hub: user %d connected", client.userID)
		case client := <-h.unregister:
			h.lock.Lock()
			if cur, ok := h.clients[client.userID]; ok && cur == client {
				delete(h.clients, client.userID)
			}
			h.lock.Unlock()
			log.Printf("hub: user %d disconnected", client.userID)
		}
	}
}

// send queues a frame for one user. Frames for offline users are
// dropped: the backing records are durable and a reconnecting client
// replays them via sync-request. A client whose buffer is full is
// considered dead and dropped; it will reconnect and resync. The
// client's send channel is never closed, so queueing to a connection
// that is concurrently being replaced is safe; the frame lands in a
// buffer nobody drains and dies with the old client.
func (h *Hub) send(userID uint64, frame []byte) {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- frame:
	default:
		log.Printf("hub: user %d send buffer full, dropping connection", userID)
		client.shutdown()
	}
}

// PushNotification pushes the full notification record to the user.
func (h *Hub) PushNotification(userID uint64, n *model.Notification) {
	h.send(userID, mustFrame(FrameNotificationNew, NotificationPayload{Notification: *n}))
}

// PushUnreadCount pushes the authoritative unread scalar to the user.
func (h *Hub) PushUnreadCount(userID uint64, count int) {
	h.send(userID, mustFrame(FrameUnreadCount, UnreadCountPayload{Count: count, UpdatedAt: time.Now().UTC()}))
}

// Connected reports whether the user currently has an active channel.
func (h *Hub) Connected(userID uint64) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
