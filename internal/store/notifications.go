package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inspecasa/internal/model"
)

// CreateNotification inserts a notification and returns it with its ID.
func CreateNotification(ctx context.Context, db *sql.DB, n *model.Notification) (*model.Notification, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_property_id, scheduled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedPropertyID, n.ScheduledAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}

	return getNotification(ctx, db, id)
}

func getNotification(ctx context.Context, db *sql.DB, id int64) (*model.Notification, error) {
	n := &model.Notification{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, type, title, message, related_property_id, is_read, created_at, scheduled_at
		 FROM notifications WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedPropertyID, &n.IsRead, &n.CreatedAt, &n.ScheduledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64) ([]model.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, related_property_id, is_read, created_at, scheduled_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedPropertyID, &n.IsRead, &n.CreatedAt, &n.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnreadNotifications returns how many of a user's notifications are unread.
func CountUnreadNotifications(ctx context.Context, db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one of the user's notifications as read. It
// reports false if the user has no such notification.
func MarkNotificationRead(ctx context.Context, db *sql.DB, userID, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	return n == 1, nil
}

// MarkAllNotificationsRead marks every notification of the user as read.
func MarkAllNotificationsRead(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// HasDueNotification reports whether a notification of the given type
// already exists for the property.
func HasDueNotification(ctx context.Context, db *sql.DB, propertyID, notificationType string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE related_property_id = ? AND type = ?`,
		propertyID, notificationType,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking notifications: %w", err)
	}
	return count > 0, nil
}
