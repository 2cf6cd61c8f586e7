package model

import "time"

// NotificationType enumerates the categories a notification can carry.
type NotificationType string

const (
	NotificationMessage   NotificationType = "message"
	NotificationOrder     NotificationType = "order"
	NotificationPayment   NotificationType = "payment"
	NotificationReview    NotificationType = "review"
	NotificationSystem    NotificationType = "system"
	NotificationPromotion NotificationType = "promotion"
)

// Notification is one event delivered to one user.  Read is monotonic:
// it only ever moves from false to true.  Deletion removes the record
// entirely; there are no soft-delete semantics.
type Notification struct {
	ID        uint64           `json:"id"`                   // notifications.id
	UserID    uint64           `json:"user_id"`              // notifications.user_id
	EventID   *string          `json:"-"`                    // notifications.event_id (nullable, dedupes event fan-out)
	Type      NotificationType `json:"type"`                 // notifications.type
	Title     string           `json:"title"`                // notifications.title
	Message   string           `json:"message"`              // notifications.message
	Read      bool             `json:"read"`                 // notifications.read
	ActionURL *string          `json:"action_url,omitempty"` // notifications.action_url (nullable)
	Metadata  *string          `json:"metadata,omitempty"`   // notifications.metadata (nullable JSON)
	CreatedAt time.Time        `json:"created_at"`           // notifications.created_at
	ReadAt    *time.Time       `json:"read_at,omitempty"`    // notifications.read_at (nullable)
}
