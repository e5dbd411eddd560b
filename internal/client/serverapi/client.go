// Package serverapi is the device's HTTP client for the backend. Every call
// reduces to a bool; errors are logged here and never returned.
package serverapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/session"
)

const defaultTimeout = 15 * time.Second

// TokenStore loads and saves the device session
type TokenStore interface {
	Load() (*session.Tokens, error)
	Save(t *session.Tokens) error
}

type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	logger  *zap.Logger
}

func New(baseURL string, store TokenStore, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
		logger:  logger.Named("serverapi"),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// UploadToken stores the device token for the signed-in user. The server
// takes the user from the access token; userID is only logged.
func (c *Client) UploadToken(ctx context.Context, userID, token, platform string) bool {
	tokens, err := c.store.Load()
	if err != nil {
		c.logger.Warn("token upload without session", zap.Error(err))
		return false
	}

	body := map[string]string{"token": token, "platform": platform}
	status, _, err := c.do(ctx, http.MethodPost, "/api/v1/device-tokens", tokens.AccessToken, body)
	if err != nil {
		c.logger.Warn("token upload failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	if status < 200 || status >= 300 {
		c.logger.Warn("token upload rejected", zap.String("user_id", userID), zap.Int("status", status))
		return false
	}
	return true
}

// ValidateOrRefreshSession checks the stored access token and, if the
// server rejects it, rotates the pair with the refresh token.
func (c *Client) ValidateOrRefreshSession(ctx context.Context) bool {
	tokens, err := c.store.Load()
	if err != nil {
		return false
	}

	status, _, err := c.do(ctx, http.MethodGet, "/api/v1/session", tokens.AccessToken, nil)
	if err != nil {
		c.logger.Warn("session check failed", zap.Error(err))
		return false
	}
	switch {
	case status == http.StatusOK:
		return true
	case status != http.StatusUnauthorized || tokens.RefreshToken == "":
		c.logger.Warn("session check rejected", zap.Int("status", status))
		return false
	}

	return c.refresh(ctx, tokens.RefreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) bool {
	status, env, err := c.do(ctx, http.MethodPost, "/api/v1/session/refresh", "",
		map[string]string{"refresh_token": refreshToken})
	if err != nil {
		c.logger.Warn("session refresh failed", zap.Error(err))
		return false
	}
	if status != http.StatusOK || env == nil {
		c.logger.Info("session refresh rejected", zap.Int("status", status))
		return false
	}

	var pair session.Tokens
	if err := json.Unmarshal(env.Data, &pair); err != nil || pair.AccessToken == "" {
		c.logger.Warn("session refresh returned no tokens", zap.Error(err))
		return false
	}
	if err := c.store.Save(&pair); err != nil {
		c.logger.Error("failed to persist refreshed session", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body interface{}) (int, *envelope, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	if len(raw) == 0 {
		return resp.StatusCode, nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// non-JSON bodies still carry a usable status
		return resp.StatusCode, nil, nil
	}
	return resp.StatusCode, &env, nil
}
