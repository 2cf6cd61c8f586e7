package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// memNotifications mirrors the repository's idempotent insert: one row
// per (event_id, user_id), duplicates resolve the existing row.
type memNotifications struct {
	nextID  uint64
	rows    []model.Notification
	failFor map[uint64]error // user ID -> injected Create failure
}

func (m *memNotifications) Create(_ context.Context, n *model.Notification) (bool, error) {
	if err := m.failFor[n.UserID]; err != nil {
		return false, err
	}
	if n.EventID != nil {
		for _, row := range m.rows {
			if row.UserID == n.UserID && row.EventID != nil && *row.EventID == *n.EventID {
				n.ID = row.ID
				return false, nil
			}
		}
	}
	m.nextID++
	n.ID = m.nextID
	m.rows = append(m.rows, *n)
	return true, nil
}

func (m *memNotifications) countFor(userID uint64) int {
	count := 0
	for _, n := range m.rows {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

func (m *memNotifications) UnreadCount(_ context.Context, userID uint64) (int, error) {
	count := 0
	for _, n := range m.rows {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

type pushRecorder struct {
	notifications []uint64 // user IDs pushed to
	counts        map[uint64]int
}

func (p *pushRecorder) PushNotification(userID uint64, _ *model.Notification) {
	p.notifications = append(p.notifications, userID)
}

func (p *pushRecorder) PushUnreadCount(userID uint64, count int) {
	if p.counts == nil {
		p.counts = make(map[uint64]int)
	}
	p.counts[userID] = count
}

func TestHandleMessageFansOutPerRecipient(t *testing.T) {
	store := &memNotifications{}
	pushes := &pushRecorder{}
	c := &NotifierConsumer{Notifications: store, Hub: pushes}

	body, _ := json.Marshal(MatchEvent{
		EventID:    "ev-1",
		Type:       EventCompletionConfirmed,
		MatchID:    7,
		ActorID:    20,
		Recipients: []uint64{10, 20},
	})
	require.NoError(t, c.handleMessage(context.Background(), body))

	require.Len(t, store.rows, 2)
	require.Equal(t, model.NotificationReview, store.rows[0].Type)
	require.NotNil(t, store.rows[0].ActionURL)
	require.Equal(t, "/matches/7", *store.rows[0].ActionURL)

	require.ElementsMatch(t, []uint64{10, 20}, pushes.notifications)
	require.Equal(t, 1, pushes.counts[10])
	require.Equal(t, 1, pushes.counts[20])
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := &NotifierConsumer{Notifications: &memNotifications{}}
	err := c.handleMessage(context.Background(), []byte("{not json"))
	require.ErrorIs(t, err, errMalformedEvent)
}

func TestHandleMessageRedeliveryKeepsSingleRow(t *testing.T) {
	store := &memNotifications{}
	pushes := &pushRecorder{}
	c := &NotifierConsumer{Notifications: store, Hub: pushes}

	body, _ := json.Marshal(MatchEvent{
		EventID:    "ev-9",
		Type:       EventCompletionRequested,
		MatchID:    5,
		ActorID:    20,
		Recipients: []uint64{10},
	})
	require.NoError(t, c.handleMessage(context.Background(), body))
	require.NoError(t, c.handleMessage(context.Background(), body))

	// One inbox row, two pushes: at-least-once delivery with an
	// idempotent store.
	require.Equal(t, 1, store.countFor(10))
	require.Equal(t, []uint64{10, 10}, pushes.notifications)
}

func TestHandleMessagePartialFailureIsRetrySafe(t *testing.T) {
	store := &memNotifications{failFor: map[uint64]error{20: errors.New("connection refused")}}
	c := &NotifierConsumer{Notifications: store, Hub: &pushRecorder{}}

	body, _ := json.Marshal(MatchEvent{
		EventID:    "ev-3",
		Type:       EventCompletionConfirmed,
		MatchID:    5,
		ActorID:    20,
		Recipients: []uint64{10, 20},
	})

	// The second recipient's insert fails; the error is transient, not
	// poison, so the message would be requeued.
	err := c.handleMessage(context.Background(), body)
	require.Error(t, err)
	require.NotErrorIs(t, err, errMalformedEvent)
	require.Equal(t, 1, store.countFor(10))
	require.Equal(t, 0, store.countFor(20))

	// The redelivery completes the fan-out without duplicating the
	// recipient that already succeeded.
	delete(store.failFor, 20)
	require.NoError(t, c.handleMessage(context.Background(), body))
	require.Equal(t, 1, store.countFor(10))
	require.Equal(t, 1, store.countFor(20))
}

func TestNotificationForCopy(t *testing.T) {
	requested := notificationFor(&MatchEvent{Type: EventCompletionRequested, MatchID: 3, Comment: "ready"}, 10)
	require.Equal(t, model.NotificationOrder, requested.Type)
	require.Contains(t, requested.Message, `"ready"`)

	changed := notificationFor(&MatchEvent{Type: EventStatusChanged, MatchID: 3, Status: "cancelled"}, 10)
	require.Equal(t, "Match cancelled", changed.Title)

	revealed := notificationFor(&MatchEvent{Type: EventPhoneRevealed, MatchID: 3}, 10)
	require.Equal(t, model.NotificationSystem, revealed.Type)

	require.Nil(t, notificationFor(&MatchEvent{Type: "mystery"}, 10))
}
