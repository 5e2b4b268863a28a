package model

import "time"

const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

type Notification struct {
	ID          int64     `json:"id" db:"id"`
	RecipientID int64     `json:"recipient_id" db:"recipient_id"`
	Message     string    `json:"message" db:"message"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type SendNotificationRequest struct {
	RecipientID int64  `json:"recipient_id" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// RealtimeEvent is what WebSocket subscribers of user_{id} receive.
type RealtimeEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
