// Package fallback shows a local notification for socket-delivered chat
// messages that the push channel has not already surfaced.
package fallback

import (
	"context"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/ledger"
	"github.com/contactbook/backend/internal/client/platform"
	"github.com/contactbook/backend/internal/domain"
)

const defaultTitle = "New message"

// Message is a chat event received over the socket channel
type Message struct {
	ChatID    string
	MessageID string
	ChatName  string
	Sender    string
	Title     string
	Body      string
	// Data is merged into the notification payload
	Data map[string]string
}

type Fallback struct {
	ledger    *ledger.Ledger
	channels  platform.Channels
	scheduler platform.Scheduler
	logger    *zap.Logger
}

func New(l *ledger.Ledger, channels platform.Channels, scheduler platform.Scheduler, logger *zap.Logger) *Fallback {
	return &Fallback{
		ledger:    l,
		channels:  channels,
		scheduler: scheduler,
		logger:    logger.Named("fallback"),
	}
}

// MaybeNotify schedules a local notification for msg unless its id is
// already in the ledger. It reports whether a notification was scheduled.
func (f *Fallback) MaybeNotify(ctx context.Context, msg Message) bool {
	if msg.ChatID == "" || msg.MessageID == "" {
		f.logger.Debug("dropping message without ids", zap.String("chat_id", msg.ChatID))
		return false
	}

	// claim before any call that can block so a second event for the same id
	// cannot pass the check
	if !f.ledger.Claim(msg.MessageID) {
		return false
	}

	if err := f.channels.EnsureChannels(ctx); err != nil {
		f.logger.Warn("failed to ensure notification channels", zap.Error(err))
	}

	n := platform.LocalNotification{
		Title: Title(msg),
		Body:  msg.Body,
		Data:  payload(msg),
	}
	if err := f.scheduler.ScheduleLocal(ctx, n); err != nil {
		// nothing reached the user, so a redelivery may try again
		f.ledger.Release(msg.MessageID)
		f.logger.Warn("failed to schedule local notification",
			zap.String("message_id", msg.MessageID), zap.Error(err))
		return false
	}
	return true
}

// Title picks the display title for msg
func Title(msg Message) string {
	switch {
	case msg.Title != "":
		return msg.Title
	case msg.ChatName != "" && msg.Sender != "":
		return msg.ChatName + " • " + msg.Sender
	case msg.Sender != "":
		return msg.Sender
	default:
		return defaultTitle
	}
}

// payload matches the push data shape so a tap routes the same way
func payload(msg Message) map[string]string {
	data := make(map[string]string, len(msg.Data)+4)
	for k, v := range msg.Data {
		data[k] = v
	}
	p := domain.AlertPayload{
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		ChatName:  msg.ChatName,
		Sender:    msg.Sender,
		Kind:      domain.AlertKindChat,
	}
	for k, v := range p.ToData() {
		data[k] = v
	}
	return data
}
