package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/domain"
)

// DefaultExpoURL is the Expo push API endpoint
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

type expoMessage struct {
	To        string            `json:"to"`
	Title     string            `json:"title,omitempty"`
	Body      string            `json:"body,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Priority  string            `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
}

type expoResponse struct {
	Data []expoTicket `json:"data"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details *struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

// Expo sends pushes to Expo push tokens
type Expo struct {
	url         string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewExpo(url, accessToken string, logger *zap.Logger) *Expo {
	if url == "" {
		url = DefaultExpoURL
	}
	return &Expo{
		url:         url,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (e *Expo) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	if token == "" {
		return ErrEmptyToken
	}

	body, err := json.Marshal([]expoMessage{{
		To:        token,
		Title:     msg.Title,
		Body:      msg.Body,
		Data:      msg.Data,
		Sound:     "default",
		Priority:  "high",
		ChannelID: AndroidChannelID,
	}})
	if err != nil {
		return fmt.Errorf("failed to marshal expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.accessToken)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send expo push: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read expo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}

	var parsed expoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// the push was accepted even if the ticket is unreadable
		e.logger.Warn("Failed to parse Expo response", zap.Error(err))
		return nil
	}
	if len(parsed.Data) == 0 {
		return nil
	}

	ticket := parsed.Data[0]
	if ticket.Status != "error" {
		return nil
	}
	if ticket.Details != nil && ticket.Details.Error == "DeviceNotRegistered" {
		return fmt.Errorf("%w: %s", ErrDeviceNotRegistered, ticket.Message)
	}
	return fmt.Errorf("expo ticket error: %s", ticket.Message)
}
