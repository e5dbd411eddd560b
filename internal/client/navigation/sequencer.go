package navigation

import (
	"context"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/platform"
)

// IdentityStore reads the persisted identity
type IdentityStore interface {
	UserID() (string, bool)
}

type SessionValidator interface {
	ValidateOrRefreshSession(ctx context.Context) bool
}

// SessionResult is the outcome of the bootstrap session check
type SessionResult struct {
	Authenticated bool
	UserID        string
}

// CheckSession reads the stored identity and validates it with the server.
// A missing or unreadable identity is unauthenticated.
func CheckSession(ctx context.Context, store IdentityStore, validator SessionValidator) SessionResult {
	userID, ok := store.UserID()
	if !ok {
		return SessionResult{}
	}
	if !validator.ValidateOrRefreshSession(ctx) {
		return SessionResult{}
	}
	return SessionResult{Authenticated: true, UserID: userID}
}

// BootstrapState gates the initial route decision
type BootstrapState struct {
	FontsLoaded    bool
	SessionChecked bool
	Authenticated  bool
	UserID         string
}

func (b BootstrapState) ReadyToDecideRoute() bool {
	return b.FontsLoaded && b.SessionChecked
}

// Sequencer performs the one default route reset of an app session. It is
// not safe for concurrent use; the runtime loop owns it.
type Sequencer struct {
	coord  *Coordinator
	nav    platform.Navigator
	logger *zap.Logger

	state     BootstrapState
	resetDone bool
}

func NewSequencer(coord *Coordinator, nav platform.Navigator, logger *zap.Logger) *Sequencer {
	return &Sequencer{coord: coord, nav: nav, logger: logger.Named("bootstrap")}
}

func (s *Sequencer) SetSession(res SessionResult) {
	s.state.SessionChecked = true
	s.state.Authenticated = res.Authenticated
	s.state.UserID = res.UserID
}

func (s *Sequencer) FontsLoaded() {
	s.state.FontsLoaded = true
}

func (s *Sequencer) State() BootstrapState {
	return s.state
}

// Evaluate resets to home or login when the gate is open. It fires at most
// once, and never after a notification-driven navigation.
func (s *Sequencer) Evaluate() bool {
	if s.resetDone || !s.state.ReadyToDecideRoute() {
		return false
	}
	if s.coord.Navigated() {
		// an explicit navigation owns the first screen
		s.resetDone = true
		return false
	}
	if !s.coord.Idle() || !s.nav.IsReady() {
		return false
	}

	s.resetDone = true
	route := platform.RouteLogin
	if s.state.Authenticated {
		route = platform.RouteHome
	}
	s.logger.Info("initial route", zap.String("route", string(route)))
	s.nav.ResetTo(route)
	return true
}
