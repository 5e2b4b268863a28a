// Package message handles free-form notes exchanged between staff members
// and from managers to staff.
package message

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

type Service struct {
	repo     repository.MessageRepository
	users    repository.UserRepository
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.MessageRepository, users repository.UserRepository, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   log.With().Str("component", "message").Logger(),
	}
}

// SendStaff delivers a staff message between two employees.
func (s *Service) SendStaff(ctx context.Context, actor *model.User, req *model.SendMessageRequest) (*model.Message, error) {
	if !model.IsEmployeeRole(actor.Role) {
		return nil, apperrors.RoleDenied("Only staff members can send staff messages")
	}
	receiver, err := service.RequireUser(ctx, s.users, req.ReceiverID, "", "Receiver")
	if err != nil {
		return nil, err
	}
	if !model.IsEmployeeRole(receiver.Role) {
		return nil, apperrors.BadRequest("Receiver must be a staff member", nil)
	}
	return s.send(ctx, model.MessageKindStaff, actor, receiver, req)
}

// SendManager stores a manager message and notifies the receiver.
func (s *Service) SendManager(ctx context.Context, actor *model.User, req *model.SendMessageRequest) (*model.Message, error) {
	if actor.Role != model.RoleManager {
		return nil, apperrors.RoleDenied("Only managers can send messages")
	}
	receiver, err := service.RequireUser(ctx, s.users, req.ReceiverID, "", "Receiver")
	if err != nil {
		return nil, err
	}
	return s.send(ctx, model.MessageKindManager, actor, receiver, req)
}

func (s *Service) send(ctx context.Context, kind string, actor, receiver *model.User, req *model.SendMessageRequest) (*model.Message, error) {
	msg := &model.Message{
		Kind:       kind,
		SenderID:   actor.ID,
		ReceiverID: receiver.ID,
		Subject:    req.Subject,
		Message:    req.Message,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, apperrors.Internal(err)
	}

	text := fmt.Sprintf("New message from %s: %s", actor.Username, req.Message)
	if req.Subject != "" {
		text = fmt.Sprintf("New message from %s: %s", actor.Username, req.Subject)
	}
	if err := s.notifier.Notify(ctx, receiver, text); err != nil {
		s.logger.Warn().Err(err).Int64("message_id", msg.ID).Msg("failed to notify message receiver")
	}
	return msg, nil
}

func (s *Service) Inbox(ctx context.Context, actor *model.User, kind string) ([]*model.Message, error) {
	items, err := s.repo.Inbox(ctx, actor.ID, kind)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}
