package model

import "time"

type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Message    string    `json:"message" db:"message"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// ChatInbound is the frame a chat client sends.
type ChatInbound struct {
	Message string `json:"message"`
}

// ChatOutbound is broadcast to both participants of a chat room.
type ChatOutbound struct {
	Type       string    `json:"type"`
	Sender     string    `json:"sender"`
	SenderID   int64     `json:"sender_id"`
	Receiver   string    `json:"receiver"`
	ReceiverID int64     `json:"receiver_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatError struct {
	Error string `json:"error"`
}
