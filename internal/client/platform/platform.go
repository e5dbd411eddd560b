// Package platform declares the device services the client core depends on.
// Everything here is an OS or UI-shell collaborator; the core only sees these
// interfaces.
package platform

import "context"

type Permission int

const (
	PermissionDenied Permission = iota
	PermissionGranted
)

func (p Permission) String() string {
	if p == PermissionGranted {
		return "granted"
	}
	return "denied"
}

// Route names a screen of the app shell
type Route string

const (
	RouteHome   Route = "Home"
	RouteLogin  Route = "Login"
	RouteChat   Route = "ChatRoom"
	RouteAlerts Route = "Alerts"
)

// LocalNotification is shown immediately by the Scheduler
type LocalNotification struct {
	Title string
	Body  string
	Data  map[string]string
}

type Device interface {
	IsEmulator() bool
	// Platform is one of ios, android, web
	Platform() string
}

type Permissions interface {
	PermissionStatus(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
}

type TokenSource interface {
	// DevicePushToken may block until the OS answers
	DevicePushToken(ctx context.Context) (string, error)
}

type Channels interface {
	// EnsureChannels creates the notification channels. Existing channels
	// are left alone.
	EnsureChannels(ctx context.Context) error
}

type Scheduler interface {
	ScheduleLocal(ctx context.Context, n LocalNotification) error
}

type LaunchSource interface {
	// LastTapResponse reports the notification that launched the app, if any
	LastTapResponse(ctx context.Context) (map[string]string, bool)
}

type Navigator interface {
	IsReady() bool
	NavigateTo(route Route, params map[string]string)
	ResetTo(route Route)
}
