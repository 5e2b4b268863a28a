// Package chat persists direct messages between two users and relays them
// to the pair's WebSocket room.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/realtime"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
)

const typeChatMessage = "chat.message"

var ErrEmptyMessage = errors.New("message is required")

type Service struct {
	repo      repository.ChatRepository
	users     repository.UserRepository
	notifier  notification.Notifier
	publisher realtime.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo repository.ChatRepository, users repository.UserRepository,
	notifier notification.Notifier, publisher realtime.Publisher) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		logger:    log.With().Str("component", "chat").Logger(),
		now:       time.Now,
	}
}

// User loads a chat participant.
func (s *Service) User(ctx context.Context, id int64) (*model.User, error) {
	return s.users.Get(ctx, id)
}

// Send stores text from sender to receiver, pings the receiver and
// broadcasts the message to both participants' room.
func (s *Service) Send(ctx context.Context, sender, receiver *model.User, text string) (*model.ChatOutbound, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	msg := &model.ChatMessage{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Message:    text,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}

	if err := s.notifier.Push(ctx, receiver.ID, fmt.Sprintf("Chat from %s ", sender.Username)); err != nil {
		s.logger.Warn().Err(err).Int64("receiver_id", receiver.ID).Msg("failed to push chat notification")
	}

	out := &model.ChatOutbound{
		Type:       typeChatMessage,
		Sender:     sender.Username,
		SenderID:   sender.ID,
		Receiver:   receiver.Username,
		ReceiverID: receiver.ID,
		Message:    msg.Message,
		Timestamp:  msg.Timestamp,
	}
	if err := s.publisher.Publish(ctx, realtime.ChatRoom(sender.ID, receiver.ID), out); err != nil {
		s.logger.Warn().Err(err).Int64("chat_message_id", msg.ID).Msg("failed to broadcast chat message")
	}
	return out, nil
}

// History returns the conversation between actor and another user.
func (s *Service) History(ctx context.Context, actor *model.User, otherID int64) ([]*model.ChatMessage, error) {
	if _, err := service.RequireUser(ctx, s.users, otherID, "", "User"); err != nil {
		return nil, err
	}
	items, err := s.repo.Conversation(ctx, actor.ID, otherID)
	if err != nil {
		return nil, service.MapNotFound(err, "User")
	}
	return items, nil
}
