package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/contactbook/backend/internal/domain"
)

// AndroidChannelID must match the channel the device creates for chat alerts
const AndroidChannelID = "messages"

type fcmMessenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM sends pushes through Firebase Cloud Messaging
type FCM struct {
	msgClient fcmMessenger
	logger    *zap.Logger
}

func NewFCM(ctx context.Context, logger *zap.Logger, credentialsFile string) (*FCM, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else {
		logger.Warn("No Firebase credentials file provided, falling back to GOOGLE_APPLICATION_CREDENTIALS or default credentials")
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCM{
		msgClient: msgClient,
		logger:    logger,
	}, nil
}

func (c *FCM) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	if token == "" {
		return ErrEmptyToken
	}

	_, err := c.msgClient.Send(ctx, buildFCMMessage(token, msg))
	if err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("%w: %v", ErrDeviceNotRegistered, err)
		}
		c.logger.Error("Failed to send FCM message", zap.String("token", maskToken(token)), zap.Error(err))
		return err
	}
	return nil
}

func buildFCMMessage(token string, msg domain.PushMessage) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: AndroidChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
