package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/metrics"
)

// PushMessage is a provider-neutral push notification
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushSender delivers one push message to one device token
type PushSender interface {
	Send(ctx context.Context, token string, msg PushMessage) error
	Provider(token string) string
}

// DeliveryGuard remembers which (user, message) pairs were already pushed
type DeliveryGuard interface {
	Claim(ctx context.Context, userID uuid.UUID, messageID string) (bool, error)
	Release(ctx context.Context, userID uuid.UUID, messageID string) error
}

type AlertService struct {
	repo   AlertRepository
	tokens DeviceTokenRepository
	guard  DeliveryGuard
	sender PushSender
	logger *zap.Logger
}

func NewAlertService(repo AlertRepository, tokens DeviceTokenRepository, guard DeliveryGuard, sender PushSender, logger *zap.Logger) *AlertService {
	return &AlertService{
		repo:   repo,
		tokens: tokens,
		guard:  guard,
		sender: sender,
		logger: logger,
	}
}

func (s *AlertService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListAlerts(ctx, userID, limit, offset)
}

func (s *AlertService) MarkRead(ctx context.Context, userID, alertID uuid.UUID) error {
	return s.repo.MarkAlertRead(ctx, userID, alertID)
}

// Notify stores the alert and pushes it to the recipient's device token.
// A message id is pushed at most once per recipient; repeats return
// ErrAlreadyDispatched. Push failures are logged and counted only.
func (s *AlertService) Notify(ctx context.Context, recipientID uuid.UUID, alert OutgoingAlert) error {
	if alert.Payload.MessageID == "" {
		return ErrMissingMessageID
	}

	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, recipientID, alert.Payload.MessageID)
		switch {
		case err != nil:
			// fail open: a duplicate banner beats a lost one
			s.logger.Warn("delivery guard unavailable", zap.Error(err))
		case !claimed:
			metrics.AlertsDeduplicated.Inc()
			return ErrAlreadyDispatched
		}
	}

	data := alert.Payload.ToData()
	stored := make(map[string]interface{}, len(data))
	for k, v := range data {
		stored[k] = v
	}
	kind := AlertKind(data[KeyType])
	if _, err := s.repo.CreateAlert(ctx, recipientID, kind, alert.Title, alert.Body, stored); err != nil {
		if s.guard != nil {
			if rerr := s.guard.Release(ctx, recipientID, alert.Payload.MessageID); rerr != nil {
				s.logger.Warn("failed to release delivery claim", zap.Error(rerr))
			}
		}
		return fmt.Errorf("store alert: %w", err)
	}

	if s.sender == nil {
		return nil
	}

	dt, err := s.tokens.GetDeviceToken(ctx, recipientID)
	if err != nil {
		if !errors.Is(err, ErrNoDeviceToken) {
			s.logger.Error("failed to load device token", zap.String("user_id", recipientID.String()), zap.Error(err))
		}
		return nil
	}

	provider := s.sender.Provider(dt.Token)
	msg := PushMessage{Title: alert.Title, Body: alert.Body, Data: data}
	if err := s.sender.Send(ctx, dt.Token, msg); err != nil {
		metrics.PushesSent.WithLabelValues(provider, "failed").Inc()
		s.logger.Warn("push delivery failed",
			zap.String("user_id", recipientID.String()),
			zap.String("message_id", alert.Payload.MessageID),
			zap.Error(err),
		)
		return nil
	}
	metrics.PushesSent.WithLabelValues(provider, "sent").Inc()
	return nil
}

// Broadcast sends a generic (non-chat) alert to each recipient and returns
// how many were stored. The generated message id is shared by all
// recipients; the guard key includes the user so each still gets one push.
func (s *AlertService) Broadcast(ctx context.Context, recipients []uuid.UUID, title, body string) (string, int) {
	messageID := uuid.NewString()
	alert := OutgoingAlert{
		Title: title,
		Body:  body,
		Payload: AlertPayload{
			MessageID: messageID,
			Kind:      AlertKindGeneric,
		},
	}

	delivered := 0
	for _, r := range recipients {
		if err := s.Notify(ctx, r, alert); err != nil {
			s.logger.Warn("broadcast alert failed", zap.String("recipient_id", r.String()), zap.Error(err))
			continue
		}
		delivered++
	}
	return messageID, delivered
}
