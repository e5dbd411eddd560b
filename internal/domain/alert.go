package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AlertKind tells the client which screen a tapped alert opens
type AlertKind string

const (
	AlertKindChat    AlertKind = "chat"
	AlertKindGeneric AlertKind = "alert"
)

// Payload keys shared by push data, socket events and local notifications
const (
	KeyChatID    = "chat_id"
	KeyMessageID = "message_id"
	KeyChatName  = "chat_name"
	KeySender    = "sender"
	KeyType      = "type"
)

// AlertPayload is the routing payload carried by every push and socket event.
type AlertPayload struct {
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id"`
	ChatName  string    `json:"chat_name,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Kind      AlertKind `json:"type,omitempty"`
}

// ToData flattens the payload into a push data map
func (p AlertPayload) ToData() map[string]string {
	kind := p.Kind
	if kind == "" {
		kind = AlertKindChat
	}
	data := map[string]string{
		KeyMessageID: p.MessageID,
		KeyType:      string(kind),
	}
	if p.ChatID != "" {
		data[KeyChatID] = p.ChatID
	}
	if p.ChatName != "" {
		data[KeyChatName] = p.ChatName
	}
	if p.Sender != "" {
		data[KeySender] = p.Sender
	}
	return data
}

// ParseAlertPayload reads a payload back from a push data map.
// Chat alerts need a chat_id; every alert needs a message_id.
func ParseAlertPayload(data map[string]string) (AlertPayload, error) {
	p := AlertPayload{
		ChatID:    data[KeyChatID],
		MessageID: data[KeyMessageID],
		ChatName:  data[KeyChatName],
		Sender:    data[KeySender],
		Kind:      AlertKind(data[KeyType]),
	}
	if p.Kind == "" {
		p.Kind = AlertKindChat
	}
	if p.Kind == AlertKindChat && p.ChatID == "" {
		return p, ErrMissingChatID
	}
	if p.MessageID == "" {
		return p, ErrMissingMessageID
	}
	return p, nil
}

// Alert is a stored notification shown in the in-app alert list
type Alert struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      AlertKind `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Data      Map       `json:"data"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Map alias for JSONB data
type Map map[string]interface{}

// OutgoingAlert is what a caller hands to AlertService.Notify
type OutgoingAlert struct {
	Title   string
	Body    string
	Payload AlertPayload
}

type AlertRepository interface {
	CreateAlert(ctx context.Context, userID uuid.UUID, kind AlertKind, title, body string, data map[string]interface{}) (*Alert, error)
	ListAlerts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Alert, error)
	MarkAlertRead(ctx context.Context, userID, alertID uuid.UUID) error
}
