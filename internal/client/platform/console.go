package platform

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrNoToken = errors.New("platform: no push token configured")

// ConsoleOptions configures the headless console platform
type ConsoleOptions struct {
	Platform  string
	PushToken string
	Emulator  bool
	// DenyPermission makes permission requests fail
	DenyPermission bool
	// LaunchData is returned once by LastTapResponse
	LaunchData map[string]string
}

// Console implements every platform interface for a headless process.
// Local notifications and navigation are written to the log.
type Console struct {
	opts   ConsoleOptions
	logger *zap.Logger

	mu         sync.Mutex
	granted    bool
	channels   bool
	launchUsed bool
	route      Route
	params     map[string]string
	shown      []LocalNotification

	ready atomic.Bool
}

func NewConsole(opts ConsoleOptions, logger *zap.Logger) *Console {
	if opts.Platform == "" {
		opts.Platform = "android"
	}
	return &Console{opts: opts, logger: logger.Named("console")}
}

func (c *Console) IsEmulator() bool { return c.opts.Emulator }

func (c *Console) Platform() string { return c.opts.Platform }

func (c *Console) PermissionStatus(ctx context.Context) (Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.granted {
		return PermissionGranted, nil
	}
	return PermissionDenied, nil
}

func (c *Console) RequestPermission(ctx context.Context) (Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.DenyPermission {
		return PermissionDenied, nil
	}
	c.granted = true
	return PermissionGranted, nil
}

func (c *Console) DevicePushToken(ctx context.Context) (string, error) {
	if c.opts.PushToken == "" {
		return "", ErrNoToken
	}
	return c.opts.PushToken, nil
}

func (c *Console) EnsureChannels(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.channels && c.opts.Platform == "android" {
		c.logger.Debug("notification channel created", zap.String("channel", "messages"))
	}
	c.channels = true
	return nil
}

func (c *Console) ScheduleLocal(ctx context.Context, n LocalNotification) error {
	c.mu.Lock()
	c.shown = append(c.shown, n)
	c.mu.Unlock()

	c.logger.Info("local notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("message_id", n.Data["message_id"]),
	)
	return nil
}

// Shown returns the local notifications scheduled so far
func (c *Console) Shown() []LocalNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LocalNotification, len(c.shown))
	copy(out, c.shown)
	return out
}

func (c *Console) LastTapResponse(ctx context.Context) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.launchUsed || len(c.opts.LaunchData) == 0 {
		return nil, false
	}
	c.launchUsed = true
	return c.opts.LaunchData, true
}

// SetReady marks the navigator as mounted
func (c *Console) SetReady() { c.ready.Store(true) }

func (c *Console) IsReady() bool { return c.ready.Load() }

func (c *Console) NavigateTo(route Route, params map[string]string) {
	if !c.IsReady() {
		return
	}
	c.mu.Lock()
	c.route, c.params = route, params
	c.mu.Unlock()
	c.logger.Info("navigate", zap.String("route", string(route)), zap.Any("params", params))
}

func (c *Console) ResetTo(route Route) {
	if !c.IsReady() {
		return
	}
	c.mu.Lock()
	c.route, c.params = route, nil
	c.mu.Unlock()
	c.logger.Info("reset", zap.String("route", string(route)))
}

// Current returns the route the console navigator is showing
func (c *Console) Current() (Route, map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route, c.params
}
