// Package registration obtains push permission and a device token and keeps
// the server's copy of the token current.
package registration

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/platform"
)

// Uploader sends the token to the server. False means the upload did not
// succeed; it never returns an error.
type Uploader interface {
	UploadToken(ctx context.Context, userID, token, platform string) bool
}

// Deps groups the platform services the registrar needs
type Deps struct {
	Device      platform.Device
	Permissions platform.Permissions
	Tokens      platform.TokenSource
	Channels    platform.Channels
	Uploader    Uploader
}

// Registrar runs one registration at a time and remembers the last
// (user, token) pair the server confirmed.
type Registrar struct {
	deps   Deps
	logger *zap.Logger

	mu        sync.Mutex
	lastUser  string
	lastToken string
}

func New(deps Deps, logger *zap.Logger) *Registrar {
	return &Registrar{deps: deps, logger: logger.Named("registration")}
}

// Register returns the device token and true, or "" and false when the
// device cannot receive pushes or ctx is cancelled. Upload failures do not
// affect the result; the next call retries the upload.
func (r *Registrar) Register(ctx context.Context, userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx.Err() != nil {
		return "", false
	}
	if r.deps.Device.IsEmulator() {
		r.logger.Debug("push registration skipped on emulator")
		return "", false
	}
	if userID == "" {
		return "", false
	}

	if err := r.deps.Channels.EnsureChannels(ctx); err != nil {
		r.logger.Warn("failed to ensure notification channels", zap.Error(err))
	}

	if !r.permitted(ctx) {
		r.logger.Warn("notification permission denied")
		return "", false
	}

	token, err := r.deps.Tokens.DevicePushToken(ctx)
	if err != nil || token == "" {
		r.logger.Warn("failed to obtain device push token", zap.Error(err))
		return "", false
	}

	if userID == r.lastUser && token == r.lastToken {
		return token, true
	}

	uploaded := r.deps.Uploader.UploadToken(ctx, userID, token, r.deps.Device.Platform())
	if uploaded && ctx.Err() != nil {
		// the caller gave up on this user, so the pair is not remembered
		r.logger.Debug("registration cancelled after upload", zap.String("user_id", userID))
		return "", false
	}
	if uploaded {
		r.lastUser, r.lastToken = userID, token
		r.logger.Info("device token uploaded", zap.String("user_id", userID))
	} else {
		r.logger.Warn("device token upload failed, will retry on next registration", zap.String("user_id", userID))
	}
	return token, true
}

func (r *Registrar) permitted(ctx context.Context) bool {
	status, err := r.deps.Permissions.PermissionStatus(ctx)
	if err == nil && status == platform.PermissionGranted {
		return true
	}
	status, err = r.deps.Permissions.RequestPermission(ctx)
	if err != nil {
		r.logger.Debug("permission request failed", zap.Error(err))
		return false
	}
	return status == platform.PermissionGranted
}

// Forget drops the remembered upload so the next registration uploads again
func (r *Registrar) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUser, r.lastToken = "", ""
}

// LastUploaded returns the last pair the server confirmed
func (r *Registrar) LastUploaded() (userID, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUser, r.lastToken
}
