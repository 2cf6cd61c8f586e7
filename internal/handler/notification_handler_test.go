package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// memNotifications is an in-memory NotificationStore with the same
// ownership and monotonic-read semantics as the SQL repository.
type memNotifications struct {
	rows []model.Notification
}

func (m *memNotifications) ListByUser(_ context.Context, userID uint64, since *time.Time) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(m.rows) - 1; i >= 0; i-- { // newest first
		n := m.rows[i]
		if n.UserID != userID {
			continue
		}
		if since != nil && !n.CreatedAt.After(*since) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
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

func (m *memNotifications) MarkRead(_ context.Context, userID, id uint64) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	var n int64
	for i := range m.rows {
		if m.rows[i].UserID == userID && !m.rows[i].Read {
			m.rows[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) Delete(_ context.Context, userID, id uint64) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotifications) DeleteAll(_ context.Context, userID uint64) (int64, error) {
	var kept []model.Notification
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return n, nil
}

func ctxFor(method, path string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func seededStore() *memNotifications {
	now := time.Now().UTC()
	return &memNotifications{rows: []model.Notification{
		{ID: 1, UserID: 5, Type: model.NotificationOrder, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, UserID: 5, Type: model.NotificationReview, Read: true, CreatedAt: now.Add(-time.Hour)},
		{ID: 3, UserID: 5, Type: model.NotificationSystem, CreatedAt: now},
		{ID: 4, UserID: 6, Type: model.NotificationSystem, CreatedAt: now},
	}}
}

func TestNotificationList(t *testing.T) {
	h := NewNotificationHandler(seededStore())

	c, rec := ctxFor(http.MethodGet, "/v1/notifications", 5)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items       []model.Notification `json:"items"`
		UnreadCount int                  `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 3)
	require.Equal(t, uint64(3), body.Items[0].ID) // newest first
	require.Equal(t, 2, body.UnreadCount)
}

func TestNotificationListSince(t *testing.T) {
	h := NewNotificationHandler(seededStore())

	since := time.Now().UTC().Add(-90 * time.Minute).Format(time.RFC3339)
	c, rec := ctxFor(http.MethodGet, "/v1/notifications?since="+since, 5)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []model.Notification `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)

	c, rec = ctxFor(http.MethodGet, "/v1/notifications?since=not-a-time", 5)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationMarkRead(t *testing.T) {
	store := seededStore()
	h := NewNotificationHandler(store)

	c, rec := ctxFor(http.MethodPatch, "/", 5)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.UnreadCount)

	// Marking an already-read notification is a no-op success.
	c, rec = ctxFor(http.MethodPatch, "/", 5)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Another user's notification reads as missing, not forbidden.
	c, rec = ctxFor(http.MethodPatch, "/", 5)
	c.SetParamNames("id")
	c.SetParamValues("4")
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationMarkAllReadAndDelete(t *testing.T) {
	store := seededStore()
	h := NewNotificationHandler(store)

	c, rec := ctxFor(http.MethodPost, "/", 5)
	require.NoError(t, h.MarkAllRead(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var marked struct {
		Updated     int64 `json:"updated"`
		UnreadCount int   `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marked))
	require.Equal(t, int64(2), marked.Updated)
	require.Zero(t, marked.UnreadCount)

	c, rec = ctxFor(http.MethodDelete, "/", 5)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = ctxFor(http.MethodDelete, "/", 5)
	require.NoError(t, h.DeleteAll(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	require.Equal(t, int64(2), deleted.Deleted)

	// User 6's row is untouched.
	left, err := store.ListByUser(context.Background(), 6, nil)
	require.NoError(t, err)
	require.Len(t, left, 1)
}

func TestNotificationRequiresAuth(t *testing.T) {
	h := NewNotificationHandler(seededStore())
	c, rec := ctxFor(http.MethodGet, "/", 0)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
