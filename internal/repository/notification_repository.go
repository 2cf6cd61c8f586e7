package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// NotificationRepo provides data access to the notifications table.
// The server is the only writer of the `read` flag and the repo keeps
// it monotonic: once a notification is read it never becomes unread.
// Unread counts are always derived from the record set, never stored.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification and fills in its generated ID and
// creation timestamp. Rows carrying an EventID are unique per
// (event_id, user_id): inserting the same event for the same recipient
// again is a no-op that reports created=false and resolves the existing
// row's ID, which makes redelivered broker messages safe to replay.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (user_id, event_id, type, title, message, action_url, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
		n.UserID, n.EventID, string(n.Type), n.Title, n.Message, n.ActionURL, n.Metadata)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	n.ID = uint64(id)
	n.CreatedAt = time.Now().UTC()
	// MySQL reports 1 affected row for a fresh insert and 0 when the
	// duplicate-key branch left the row unchanged.
	return affected == 1, nil
}

// ListByUser returns the user's notifications newest first. When since
// is non-nil only records created strictly after it are returned; the
// sync-request path uses this to replay what a reconnecting client
// missed.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, since *time.Time) ([]model.Notification, error) {
	q := `SELECT id, user_id, type, title, message, ` + "`read`" + `, action_url, metadata, created_at, read_at
	      FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if since != nil {
		q += ` AND created_at > ?`
		args = append(args, since.UTC().Format("2006-01-02 15:04:05"))
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n         model.Notification
			actionURL sql.NullString
			metadata  sql.NullString
			readAt    sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read,
			&actionURL, &metadata, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if actionURL.Valid {
			n.ActionURL = &actionURL.String
		}
		if metadata.Valid {
			n.Metadata = &metadata.String
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount derives the authoritative unread count from the records.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND `read` = 0", userID).Scan(&n)
	return n, err
}

// MarkRead flips one notification to read. Marking an already-read
// notification is a no-op success; a notification owned by someone
// else (or missing) is ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET `read` = 1, read_at = UTC_TIMESTAMP() WHERE id = ? AND user_id = ? AND `read` = 0",
		id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Distinguish "already read" from "not yours / missing".
	var one int
	err = r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE id = ? AND user_id = ? LIMIT 1`, id, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// MarkAllRead flips every unread notification for the user and returns
// how many records changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET `read` = 1, read_at = UTC_TIMESTAMP() WHERE user_id = ? AND `read` = 0",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes one notification owned by the user.
func (r *NotificationRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// DeleteAll removes every notification for the user and returns the
// number of deleted records.
func (r *NotificationRepo) DeleteAll(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
