// Package push delivers push notifications through FCM or Expo.
package push

import (
	"context"
	"errors"
	"strings"

	"github.com/contactbook/backend/internal/domain"
)

var (
	ErrEmptyToken          = errors.New("push token is empty")
	ErrDeviceNotRegistered = errors.New("device not registered")
	ErrNoProvider          = errors.New("no push provider configured for token")
)

// Sender delivers a single push
type Sender interface {
	Send(ctx context.Context, token string, msg domain.PushMessage) error
}

// Router picks a provider by token shape. Either provider may be nil.
type Router struct {
	fcm  Sender
	expo Sender
}

func NewRouter(fcm, expo Sender) *Router {
	return &Router{fcm: fcm, expo: expo}
}

func IsExpoToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Provider names the provider a token routes to
func (r *Router) Provider(token string) string {
	if IsExpoToken(token) {
		return "expo"
	}
	return "fcm"
}

func (r *Router) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	var s Sender
	if IsExpoToken(token) {
		s = r.expo
	} else {
		s = r.fcm
	}
	if s == nil {
		return ErrNoProvider
	}
	return s.Send(ctx, token, msg)
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:8] + "****" + token[len(token)-4:]
}
