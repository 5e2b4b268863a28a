package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (recipient_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, n.RecipientID, n.Message, n.Status).Scan(&n.ID, &n.CreatedAt)
	return wrap("create notification", err)
}

// ListByRecipient lists newest first; an empty status returns all.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID int64, status string) ([]*model.Notification, error) {
	items := []*model.Notification{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, recipient_id, message, status, created_at FROM notifications
		WHERE recipient_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
	`, recipientID, status)
	return items, wrap("list notifications", err)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = $1 WHERE id = $2 AND recipient_id = $3
	`, model.NotificationStatusRead, id, recipientID)
	if err != nil {
		return wrap("mark notification read", err)
	}
	return requireRows(result, "mark notification read")
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = $1 WHERE recipient_id = $2 AND status = $3
	`, model.NotificationStatusRead, recipientID, model.NotificationStatusUnread)
	if err != nil {
		return 0, wrap("mark all notifications read", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return wrap("delete notification", err)
	}
	return requireRows(result, "delete notification")
}

func (r *notificationRepository) CountUnread(ctx context.Context) (int, error) {
	return r.count(ctx, "count unread notifications",
		`SELECT COUNT(*) FROM notifications WHERE status = $1`, model.NotificationStatusUnread)
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE status = $1 AND created_at < $2
	`, model.NotificationStatusRead, before)
	if err != nil {
		return 0, wrap("delete old notifications", err)
	}
	return result.RowsAffected()
}
