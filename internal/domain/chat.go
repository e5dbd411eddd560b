package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ChatMember struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

type Chat struct {
	ID      uuid.UUID     `json:"id"`
	Name    string        `json:"name"`
	Members []*ChatMember `json:"members,omitempty"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatEvent is the socket payload for a new message
type ChatEvent struct {
	AlertPayload
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRepository interface {
	GetChat(ctx context.Context, chatID uuid.UUID) (*Chat, error)
	CreateMessage(ctx context.Context, chatID, senderID uuid.UUID, content string) (*Message, error)
}

// SocketPublisher delivers events to a user's live socket connections
type SocketPublisher interface {
	SendToUser(userID uuid.UUID, message interface{})
}

// SocketEvent is the envelope written to websocket clients
type SocketEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const SocketEventNewMessage = "new_message"
