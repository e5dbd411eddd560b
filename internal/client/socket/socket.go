// Package socket keeps the device's live connection to the server and turns
// new_message events into fallback messages.
package socket

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/fallback"
	"github.com/contactbook/backend/internal/client/session"
	"github.com/contactbook/backend/internal/domain"
)

const DefaultReconnectDelay = 3 * time.Second

type TokenLoader interface {
	Load() (*session.Tokens, error)
}

// Conn dials the server websocket and forwards chat events
type Conn struct {
	url    string
	tokens TokenLoader
	delay  time.Duration
	dialer *websocket.Dialer
	logger *zap.Logger
}

// New takes the server base URL (http or https)
func New(serverURL string, tokens TokenLoader, delay time.Duration, logger *zap.Logger) *Conn {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Conn{
		url:    wsURL(serverURL),
		tokens: tokens,
		delay:  delay,
		dialer: websocket.DefaultDialer,
		logger: logger.Named("socket"),
	}
}

func wsURL(serverURL string) string {
	u := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/v1/ws"
}

// Run connects and reconnects until ctx is done, sending every decoded
// chat event to out.
func (c *Conn) Run(ctx context.Context, out chan<- fallback.Message) {
	for {
		err := c.session(ctx, out)
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("socket disconnected", zap.Error(err), zap.Duration("retry_in", c.delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}
	}
}

func (c *Conn) session(ctx context.Context, out chan<- fallback.Message) error {
	tokens, err := c.tokens.Load()
	if err != nil {
		return err
	}

	target := c.url + "?access_token=" + url.QueryEscape(tokens.AccessToken)
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.logger.Info("socket connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, ok := decodeEvent(frame)
		if !ok {
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeEvent returns false for frames that are not usable chat events
func decodeEvent(frame []byte) (fallback.Message, bool) {
	var ev event
	if err := json.Unmarshal(frame, &ev); err != nil || ev.Type != domain.SocketEventNewMessage {
		return fallback.Message{}, false
	}

	var p domain.ChatEvent
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fallback.Message{}, false
	}
	if p.ChatID == "" || p.MessageID == "" {
		return fallback.Message{}, false
	}
	return fallback.Message{
		ChatID:    p.ChatID,
		MessageID: p.MessageID,
		ChatName:  p.ChatName,
		Sender:    p.Sender,
		Body:      p.Content,
	}, true
}
