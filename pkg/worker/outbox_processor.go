package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/hospital-api/internal/email"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// OutboxProcessor delivers queued notification emails.
type OutboxProcessor struct {
	repo    repository.EmailOutboxRepository
	sender  email.Service
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.EmailOutboxRepository,
	sender email.Service,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		sender:  sender,
		config:  config,
		logger:  logger.Component("email-outbox"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting email outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down email outbox processor")
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process email outbox")
			}
		}
	}
}

// ProcessBatch claims one batch of due emails and attempts each once.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	err := p.repo.ClaimPending(ctx, p.config.BatchSize, func(ctx context.Context, emails []*model.EmailOutbox, mark repository.MarkFunc) error {
		for _, e := range emails {
			if err := p.deliver(ctx, e, mark); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_emails", "error").Inc()
		return fmt.Errorf("failed to process pending emails: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_emails", "success").Inc()
	return nil
}

// deliver sends one email and records the outcome. Only a failure to
// record is returned; send failures are scheduled for retry.
func (p *OutboxProcessor) deliver(ctx context.Context, e *model.EmailOutbox, mark repository.MarkFunc) error {
	sendErr := p.sender.Send(ctx, e.Recipient, e.Subject, e.Body)
	if sendErr == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		return mark(e.ID, model.EmailStatusSent, nil, nil)
	}

	errStr := sendErr.Error()
	attempts := e.Attempts + 1
	if attempts >= p.config.RetryAttempts {
		p.metrics.OutboxEventsFailed.Inc()
		p.logger.Error(sendErr, "Giving up on email",
			"email_id", e.ID,
			"attempts", attempts)
		return mark(e.ID, model.EmailStatusFailed, &errStr, nil)
	}

	p.metrics.OutboxRetries.Inc()
	next := p.now().Add(backoff(p.config.RetryDelay, attempts))
	p.logger.Warn("Email delivery failed, will retry",
		"email_id", e.ID,
		"attempts", attempts,
		"next_retry_at", next)
	return mark(e.ID, model.EmailStatusRetry, &errStr, &next)
}

// backoff doubles delay for every attempt already made, capped at 64x.
func backoff(delay time.Duration, attempts int) time.Duration {
	if attempts > 7 {
		attempts = 7
	}
	return delay * time.Duration(1<<(attempts-1))
}
