package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the push delivery platform of a device
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// ParsePlatform normalizes a platform string
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return p, nil
	default:
		return "", ErrInvalidPlatform
	}
}

// DeviceToken is the single push address tracked for a user.
// A new registration replaces the previous one (last token wins).
type DeviceToken struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Platform  Platform  `json:"platform"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeviceTokenRepository interface {
	UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token string, platform Platform) (*DeviceToken, error)
	GetDeviceToken(ctx context.Context, userID uuid.UUID) (*DeviceToken, error)
}
