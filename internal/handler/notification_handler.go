package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// NotificationStore is the persistence surface the notification
// endpoints need.  The repository implements it; tests use an
// in-memory fake.
type NotificationStore interface {
	ListByUser(ctx context.Context, userID uint64, since *time.Time) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, userID, id uint64) error
	DeleteAll(ctx context.Context, userID uint64) (int64, error)
}

// NotificationHandler serves the notification inbox.  Every response
// that carries a count derives it from stored rows, never from an
// incremented counter, so REST reads double as the reconciliation
// source of truth for push clients.
type NotificationHandler struct {
	Store NotificationStore
}

// NewNotificationHandler constructs a NotificationHandler and panics on
// a nil store.
func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	if store == nil {
		panic("nil store passed to NewNotificationHandler")
	}
	return &NotificationHandler{Store: store}
}

// List handles GET /v1/notifications.  An optional ?since=RFC3339
// query parameter limits the result to notifications created after
// that instant, which the push client uses for incremental syncs.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var since *time.Time
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be RFC3339"})
		}
		since = &t
	}
	ctx := c.Request().Context()
	items, err := h.Store.ListByUser(ctx, userID, since)
	if err != nil {
		return httpError(c, err)
	}
	unread, err := h.Store.UnreadCount(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "unread_count": unread})
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	unread, err := h.Store.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread_count": unread})
}

// MarkRead handles PUT /v1/notifications/:id/read.  Marking an
// already-read notification succeeds without effect; the flag never
// flips back.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	if err := h.Store.MarkRead(ctx, userID, id); err != nil {
		return httpError(c, err)
	}
	unread, err := h.Store.UnreadCount(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread_count": unread})
}

// MarkAllRead handles PUT /v1/notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	updated, err := h.Store.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated, "unread_count": 0})
}

// Delete handles DELETE /v1/notifications/:id.
func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Store.Delete(c.Request().Context(), userID, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /v1/notifications.
func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	deleted, err := h.Store.DeleteAll(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}
