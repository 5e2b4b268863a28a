package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type chatRepository struct {
	BaseRepository
}

func NewChatRepository(base BaseRepository) repository.ChatRepository {
	return &chatRepository{base}
}

func (r *chatRepository) Create(ctx context.Context, m *model.ChatMessage) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (sender_id, receiver_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`, m.SenderID, m.ReceiverID, m.Message).Scan(&m.ID, &m.Timestamp)
	return wrap("create chat message", err)
}

func (r *chatRepository) Conversation(ctx context.Context, userA, userB int64) ([]*model.ChatMessage, error) {
	msgs := []*model.ChatMessage{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT id, sender_id, receiver_id, message, timestamp FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY timestamp, id
	`, userA, userB)
	return msgs, wrap("list chat messages", err)
}
