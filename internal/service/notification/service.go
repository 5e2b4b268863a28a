package notification

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/realtime"
	"github.com/jwalitptl/hospital-api/internal/repository"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const (
	channelInApp     = "in_app"
	channelRealtime  = "websocket"
	channelEmail     = "email"
	emailSubject     = "Hospital notification"
	typeNotification = "notification"
)

// Notifier is what other services use to reach a user.
type Notifier interface {
	// Notify stores an unread notification, pushes it to the user's
	// WebSocket group and queues an email when enabled.
	Notify(ctx context.Context, recipient *model.User, message string) error
	// NotifyRole notifies every user holding role.
	NotifyRole(ctx context.Context, role string, message string) error
	// Push delivers a realtime-only message without storing it.
	Push(ctx context.Context, recipientID int64, message string) error
}

type Options struct {
	// EmailEnabled queues an outbox email for every stored notification.
	EmailEnabled bool
	Metrics      *metrics.Metrics
}

type Service struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	outbox    repository.EmailOutboxRepository
	publisher realtime.Publisher
	opts      Options
	logger    zerolog.Logger
}

func NewService(repo repository.NotificationRepository, users repository.UserRepository,
	outbox repository.EmailOutboxRepository, publisher realtime.Publisher, opts Options) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		outbox:    outbox,
		publisher: publisher,
		opts:      opts,
		logger:    log.With().Str("component", "notification").Logger(),
	}
}

func (s *Service) Notify(ctx context.Context, recipient *model.User, message string) error {
	n := &model.Notification{
		RecipientID: recipient.ID,
		Message:     message,
		Status:      model.NotificationStatusUnread,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return apperrors.Internal(err)
	}
	s.count(channelInApp)

	if err := s.Push(ctx, recipient.ID, message); err != nil {
		s.logger.Warn().Err(err).Int64("recipient_id", recipient.ID).Msg("failed to push notification")
	}

	if s.opts.EmailEnabled && s.outbox != nil && recipient.Email != "" {
		email := &model.EmailOutbox{
			Recipient: recipient.Email,
			Subject:   emailSubject,
			Body:      message,
		}
		if err := s.outbox.Enqueue(ctx, email); err != nil {
			s.logger.Warn().Err(err).Int64("recipient_id", recipient.ID).Msg("failed to queue notification email")
		} else {
			s.count(channelEmail)
		}
	}
	return nil
}

func (s *Service) NotifyRole(ctx context.Context, role string, message string) error {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return apperrors.Internal(err)
	}
	var errs []error
	for _, u := range users {
		if err := s.Notify(ctx, u, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Push(ctx context.Context, recipientID int64, message string) error {
	if s.publisher == nil {
		return nil
	}
	err := s.publisher.Publish(ctx, realtime.UserTopic(recipientID), model.RealtimeEvent{
		Type:    typeNotification,
		Message: message,
	})
	if err == nil {
		s.count(channelRealtime)
	}
	return err
}

func (s *Service) count(channel string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.NotificationsSent.WithLabelValues(channel).Inc()
	}
}

// Send notifies the recipient of req on behalf of any authenticated user.
func (s *Service) Send(ctx context.Context, req *model.SendNotificationRequest) error {
	recipient, err := s.users.Get(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User", err)
		}
		return apperrors.Internal(err)
	}
	return s.Notify(ctx, recipient, req.Message)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*model.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, userID, "")
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) ListUnread(ctx context.Context, userID int64) ([]*model.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, userID, model.NotificationStatusUnread)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Notification", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Notification", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}
