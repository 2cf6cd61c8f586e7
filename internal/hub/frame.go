// Package hub maintains one addressable websocket channel per
// authenticated user and fans domain notifications out over it. The
// hub pushes full notification records, never diffs, and pairs every
// push with the authoritative unread count so clients have a fast-path
// hint between their periodic full reconciliations.
package hub

import (
	"encoding/json"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// Frame types exchanged on the push channel. Server to client:
// connection-confirmed, notification:new, notification:unread-count,
// notification:sync-response, pong. Client to server:
// notification:sync-request, ping.
const (
	FrameConnectionConfirmed = "connection-confirmed"
	FrameNotificationNew     = "notification:new"
	FrameUnreadCount         = "notification:unread-count"
	FrameSyncRequest         = "notification:sync-request"
	FrameSyncResponse        = "notification:sync-response"
	FramePing                = "ping"
	FramePong                = "pong"
)

// Frame is the wire envelope for every push-channel message.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NotificationPayload wraps the full record carried by
// notification:new frames.
type NotificationPayload struct {
	Notification model.Notification `json:"notification"`
}

// UnreadCountPayload is the authoritative scalar pushed alongside
// every new notification and on connect.
type UnreadCountPayload struct {
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncRequestPayload is sent by a reconnecting client before it
// resumes incremental event handling.
type SyncRequestPayload struct {
	LastSyncTime *time.Time `json:"last_sync_time"`
}

// SyncResponsePayload replays everything newer than the client's
// last-known-sync timestamp plus the current unread count.
type SyncResponsePayload struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
	SyncedAt      time.Time            `json:"synced_at"`
}

func mustFrame(frameType string, payload any) []byte {
	data, _ := json.Marshal(payload)
	raw, _ := json.Marshal(Frame{Type: frameType, Data: data})
	return raw
}
