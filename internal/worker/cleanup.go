package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

// CleanupWorker periodically drops read-out data: notifications past the
// retention window, delivered emails and expired revoked tokens.
type CleanupWorker struct {
	notifications   repository.NotificationRepository
	emails          repository.EmailOutboxRepository
	tokens          repository.TokenRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewCleanupWorker(
	notifications repository.NotificationRepository,
	emails repository.EmailOutboxRepository,
	tokens repository.TokenRepository,
	retention, cleanupInterval time.Duration,
	log *logger.Logger,
	m *metrics.Metrics,
) *CleanupWorker {
	return &CleanupWorker{
		notifications:   notifications,
		emails:          emails,
		tokens:          tokens,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log.Component("cleanup"),
		metrics:         m,
		now:             time.Now,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Cleanup run failed")
			}
		}
	}
}

func (w *CleanupWorker) Cleanup(ctx context.Context) error {
	now := w.now()
	cutoff := now.Add(-w.retention)

	notifications, err := w.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup notifications: %w", err)
	}
	emails, err := w.emails.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup sent emails: %w", err)
	}
	tokens, err := w.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to cleanup revoked tokens: %w", err)
	}

	if w.metrics != nil {
		w.metrics.CleanupDeleted.Add(float64(notifications + emails + tokens))
	}
	w.logger.Info("Cleanup finished",
		"notifications", notifications,
		"emails", emails,
		"revoked_tokens", tokens,
		"cutoff", cutoff)
	return nil
}
