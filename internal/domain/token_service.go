package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/metrics"
)

type TokenService struct {
	repo   DeviceTokenRepository
	logger *zap.Logger
}

func NewTokenService(repo DeviceTokenRepository, logger *zap.Logger) *TokenService {
	return &TokenService{
		repo:   repo,
		logger: logger,
	}
}

// Register stores token as the user's only push address
func (s *TokenService) Register(ctx context.Context, userID uuid.UUID, token, platform string) (*DeviceToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	p, err := ParsePlatform(platform)
	if err != nil {
		return nil, err
	}

	dt, err := s.repo.UpsertDeviceToken(ctx, userID, token, p)
	if err != nil {
		return nil, err
	}

	metrics.TokenRegistrations.WithLabelValues(string(p)).Inc()
	s.logger.Debug("device token registered",
		zap.String("user_id", userID.String()),
		zap.String("platform", string(p)),
	)
	return dt, nil
}
