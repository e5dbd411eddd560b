package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/worker"
)

// JobSubmitter queues background work
type JobSubmitter interface {
	Submit(job worker.Job) bool
}

type ChatService struct {
	repo     ChatRepository
	alerts   *AlertService
	socket   SocketPublisher
	dispatch JobSubmitter
	logger   *zap.Logger
}

func NewChatService(repo ChatRepository, alerts *AlertService, socket SocketPublisher, dispatch JobSubmitter, logger *zap.Logger) *ChatService {
	return &ChatService{
		repo:     repo,
		alerts:   alerts,
		socket:   socket,
		dispatch: dispatch,
		logger:   logger,
	}
}

// SendMessage stores a message and delivers it to the other members over
// both transports: the socket channel immediately and a push alert through
// the dispatch pool. Both carry the same chat and message ids so the device
// can drop whichever arrives second.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var senderName string
	isMember := false
	for _, m := range chat.Members {
		if m.UserID == senderID {
			isMember = true
			senderName = m.Name
		}
	}
	if !isMember {
		return nil, ErrNotChatMember
	}

	msg, err := s.repo.CreateMessage(ctx, chatID, senderID, content)
	if err != nil {
		return nil, err
	}

	payload := AlertPayload{
		ChatID:    chatID.String(),
		MessageID: msg.ID.String(),
		ChatName:  chat.Name,
		Sender:    senderName,
		Kind:      AlertKindChat,
	}
	event := SocketEvent{
		Type: SocketEventNewMessage,
		Payload: ChatEvent{
			AlertPayload: payload,
			Content:      msg.Content,
			CreatedAt:    msg.CreatedAt,
		},
	}

	for _, m := range chat.Members {
		if m.UserID == senderID {
			continue
		}
		if s.socket != nil {
			s.socket.SendToUser(m.UserID, event)
		}
		s.queueAlert(m.UserID, OutgoingAlert{
			Title:   alertTitle(chat.Name, senderName),
			Body:    truncate(content, 180),
			Payload: payload,
		})
	}

	return msg, nil
}

func (s *ChatService) queueAlert(recipientID uuid.UUID, alert OutgoingAlert) {
	if s.alerts == nil || s.dispatch == nil {
		return
	}
	accepted := s.dispatch.Submit(worker.Job{
		Name: "chat-alert:" + alert.Payload.MessageID,
		Execute: func(ctx context.Context) error {
			err := s.alerts.Notify(ctx, recipientID, alert)
			if errors.Is(err, ErrAlreadyDispatched) {
				return nil
			}
			return err
		},
	})
	if !accepted {
		s.logger.Warn("chat alert not queued",
			zap.String("recipient_id", recipientID.String()),
			zap.String("message_id", alert.Payload.MessageID),
		)
	}
}

func alertTitle(chatName, sender string) string {
	switch {
	case chatName != "" && sender != "":
		return chatName + " • " + sender
	case sender != "":
		return sender
	case chatName != "":
		return chatName
	default:
		return "New message"
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
