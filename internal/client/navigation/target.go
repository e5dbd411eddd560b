// Package navigation decides where the app goes when a notification is
// tapped and when the shell first becomes ready.
package navigation

import (
	"errors"

	"github.com/contactbook/backend/internal/client/platform"
	"github.com/contactbook/backend/internal/domain"
)

type TargetKind int

const (
	TargetChat TargetKind = iota + 1
	TargetAlert
)

// Target is a deferred navigation intent
type Target struct {
	Kind   TargetKind
	ChatID string
	// MessageID identifies the tapped notification when known
	MessageID string
}

func ChatTarget(chatID string) Target { return Target{Kind: TargetChat, ChatID: chatID} }

func AlertTarget() Target { return Target{Kind: TargetAlert} }

// TargetFromData maps a notification payload to a target. Chat payloads
// without a chat_id cannot be routed and report false.
func TargetFromData(data map[string]string) (Target, bool) {
	if len(data) == 0 {
		return Target{}, false
	}
	p, err := domain.ParseAlertPayload(data)
	if errors.Is(err, domain.ErrMissingChatID) {
		return Target{}, false
	}

	var t Target
	switch {
	case p.Kind == domain.AlertKindGeneric:
		t = AlertTarget()
	case p.ChatID != "":
		t = ChatTarget(p.ChatID)
	default:
		return Target{}, false
	}
	t.MessageID = p.MessageID
	return t, true
}

func (t Target) route() (platform.Route, map[string]string) {
	if t.Kind == TargetAlert {
		return platform.RouteAlerts, nil
	}
	return platform.RouteChat, map[string]string{"chatId": t.ChatID}
}
