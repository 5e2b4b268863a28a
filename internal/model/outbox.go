package model

import "time"

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
	EmailStatusRetry   EmailStatus = "retry"
)

// EmailOutbox is a queued email delivered by the worker.
type EmailOutbox struct {
	ID          int64       `db:"id" json:"id"`
	Recipient   string      `db:"recipient" json:"recipient"`
	Subject     string      `db:"subject" json:"subject"`
	Body        string      `db:"body" json:"body"`
	Status      EmailStatus `db:"status" json:"status"`
	Attempts    int         `db:"attempts" json:"attempts"`
	LastError   *string     `db:"last_error" json:"last_error,omitempty"`
	NextRetryAt *time.Time  `db:"next_retry_at" json:"next_retry_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	SentAt      *time.Time  `db:"sent_at" json:"sent_at,omitempty"`
}
