package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type emailOutboxRepository struct {
	BaseRepository
}

func NewEmailOutboxRepository(base BaseRepository) repository.EmailOutboxRepository {
	return &emailOutboxRepository{base}
}

func (r *emailOutboxRepository) Enqueue(ctx context.Context, email *model.EmailOutbox) error {
	if email == nil {
		return fmt.Errorf("email cannot be nil")
	}
	if email.Recipient == "" {
		return fmt.Errorf("email recipient cannot be empty")
	}

	email.Status = model.EmailStatusPending
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO email_outbox (recipient, subject, body, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, email.Recipient, email.Subject, email.Body, email.Status).Scan(&email.ID, &email.CreatedAt)
	return wrap("enqueue email", err)
}

func (r *emailOutboxRepository) ClaimPending(ctx context.Context, limit int, fn func(ctx context.Context, emails []*model.EmailOutbox, mark repository.MarkFunc) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		emails := []*model.EmailOutbox{}
		err := tx.SelectContext(ctx, &emails, `
			SELECT id, recipient, subject, body, status, attempts, last_error, next_retry_at, created_at, sent_at
			FROM email_outbox
			WHERE status IN ('pending', 'retry')
			AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return wrap("claim pending emails", err)
		}
		if len(emails) == 0 {
			return nil
		}

		mark := func(id int64, status model.EmailStatus, lastErr *string, nextRetry *time.Time) error {
			_, err := tx.ExecContext(ctx, `
				UPDATE email_outbox SET
					status = $1,
					last_error = $2,
					next_retry_at = $3,
					attempts = attempts + 1,
					sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END
				WHERE id = $4
			`, status, lastErr, nextRetry, id)
			return wrap("update email status", err)
		}

		return fn(ctx, emails, mark)
	})
}

func (r *emailOutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM email_outbox WHERE status = 'sent' AND sent_at < $1
	`, before)
	if err != nil {
		return 0, wrap("delete sent emails", err)
	}
	return result.RowsAffected()
}
