// The background consumer listens to the match.events queue, turns
// each domain event into notification rows for its recipients, and
// pushes the full record plus a fresh authoritative unread count over
// the hub. Delivery is at-least-once end to end: a redelivered event
// may push the same record twice but never inserts it twice, and the
// client reconciliation loop corrects any drift on its next full fetch.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// NotificationStore is the persistence surface the consumer writes
// notifications through. Create must be idempotent per
// (event_id, user_id) and report whether it inserted a new row, so a
// redelivered message never duplicates a recipient's inbox.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) (bool, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
}

// errMalformedEvent marks messages that can never be processed.  They
// are rejected without requeue; everything else is treated as
// transient and requeued.
var errMalformedEvent = errors.New("malformed event")

// Pusher delivers frames to connected users. Pushes to offline users
// are silently dropped; the records are durable and replayed via
// sync-request on reconnect.
type Pusher interface {
	PushNotification(userID uint64, n *model.Notification)
	PushUnreadCount(userID uint64, count int)
}

// NotifierConsumer consumes match events and fans them out as
// notifications.
type NotifierConsumer struct {
	URL           string
	Notifications NotificationStore
	Hub           Pusher
	Redis         *redis.Client // optional unread-count hint cache
}

// Run connects to RabbitMQ, declares the durable match.events queue and
// consumes until ctx is cancelled. It runs a reconnect loop with
// doubling backoff capped at 30s and never returns on processing
// errors: malformed messages are rejected without requeue, anything
// else (a store hiccup, typically) is requeued so delivery stays
// at-least-once.
func (c *NotifierConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("notifier-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			log.Printf("notifier-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
	}
}

func (c *NotifierConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notifier-consumer: set QoS failed: %v", err)
	}

	if _, err = ch.QueueDeclare(matchEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(matchEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				if errors.Is(err, errMalformedEvent) {
					log.Printf("notifier-consumer: dropping poison message: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				log.Printf("notifier-consumer: handle message failed: %v; requeueing", err)
				_ = d.Nack(false, true)
				// Pause before the redelivery so a down store does not
				// spin the requeue loop hot.
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *NotifierConsumer) handleMessage(ctx context.Context, body []byte) error {
	var ev MatchEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	for _, userID := range ev.Recipients {
		n := notificationFor(&ev, userID)
		if n == nil {
			continue
		}
		if ev.EventID != "" {
			id := ev.EventID
			n.EventID = &id
		}
		created, err := c.Notifications.Create(ctx, n)
		if err != nil {
			return fmt.Errorf("create notification for user %d: %w", userID, err)
		}
		if !created {
			// Redelivery; the row already exists. Still push so a client
			// that missed the first attempt hears about it, and let the
			// runtime's ID dedup and reconciliation absorb the repeat.
			log.Printf("notifier-consumer: event %s already recorded for user %d", ev.EventID, userID)
		}
		count, err := c.Notifications.UnreadCount(ctx, userID)
		if err != nil {
			return fmt.Errorf("unread count for user %d: %w", userID, err)
		}
		if c.Hub != nil {
			c.Hub.PushNotification(userID, n)
			c.Hub.PushUnreadCount(userID, count)
		}
		if c.Redis != nil {
			// Fast-path hint only; the record set stays authoritative.
			key := fmt.Sprintf("unread:%d", userID)
			if err := c.Redis.Set(ctx, key, count, time.Hour).Err(); err != nil {
				log.Printf("notifier-consumer: cache unread for user %d failed: %v", userID, err)
			}
		}
	}
	return nil
}

// notificationFor builds the per-recipient notification for a domain
// event. Copy is short and actionable; the action URL deep-links to
// the affected match.
func notificationFor(ev *MatchEvent, userID uint64) *model.Notification {
	matchURL := fmt.Sprintf("/matches/%d", ev.MatchID)
	meta, _ := json.Marshal(map[string]any{
		"event_id": ev.EventID,
		"match_id": ev.MatchID,
	})
	metaStr := string(meta)

	n := &model.Notification{
		UserID:    userID,
		ActionURL: &matchURL,
		Metadata:  &metaStr,
	}
	switch ev.Type {
	case EventCompletionRequested:
		n.Type = model.NotificationOrder
		n.Title = "Completion requested"
		n.Message = "Your counterparty marked the work as delivered. Confirm to close the match."
		if ev.Comment != "" {
			n.Message += fmt.Sprintf(" Note: %q", ev.Comment)
		}
	case EventCompletionConfirmed:
		n.Type = model.NotificationReview
		n.Title = "Match completed"
		n.Message = "Both parties confirmed completion. You can now rate your counterparty."
	case EventStatusChanged:
		n.Type = model.NotificationSystem
		n.Title = "Match " + ev.Status
		n.Message = fmt.Sprintf("Match #%d was marked %s.", ev.MatchID, ev.Status)
	case EventPhoneRevealed:
		n.Type = model.NotificationSystem
		n.Title = "Contact number revealed"
		n.Message = fmt.Sprintf("Your contact number was revealed to your counterparty for match #%d.", ev.MatchID)
	default:
		log.Printf("notifier-consumer: skipping unknown event type %q", ev.Type)
		return nil
	}
	return n
}
