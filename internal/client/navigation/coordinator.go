package navigation

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/platform"
)

const DefaultLockDuration = 2500 * time.Millisecond

type StateKind int

const (
	StateIdle StateKind = iota
	StatePendingChat
	StatePendingAlert
	StateLocked
)

func (k StateKind) String() string {
	switch k {
	case StatePendingChat:
		return "pending_chat"
	case StatePendingAlert:
		return "pending_alert"
	case StateLocked:
		return "locked"
	default:
		return "idle"
	}
}

// State is a snapshot of the coordinator
type State struct {
	Kind   StateKind
	ChatID string
	// Until is set for StateLocked
	Until time.Time
}

type Option func(*Coordinator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator holds at most one pending target until the navigator is
// ready. Every navigation it performs starts a lock window during which
// the coordinator is not idle.
type Coordinator struct {
	nav     platform.Navigator
	lockFor time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu          sync.Mutex
	pending     *Target
	lockedUntil time.Time
	navigated   bool
	// lastTapID is the message id of the latest tap seen by HandleTap
	lastTapID string
	// launchID is the message id of the launch tap HandleReady followed
	launchID string
}

func NewCoordinator(nav platform.Navigator, lockFor time.Duration, logger *zap.Logger, opts ...Option) *Coordinator {
	if lockFor <= 0 {
		lockFor = DefaultLockDuration
	}
	c := &Coordinator{
		nav:     nav,
		lockFor: lockFor,
		now:     time.Now,
		logger:  logger.Named("navigation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleTap navigates to t now if the navigator is ready, otherwise keeps it
// as the pending target, replacing any earlier one.
func (c *Coordinator) HandleTap(t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.MessageID != "" && t.MessageID == c.launchID {
		// the launch tap delivered again as a tap event
		c.launchID = ""
		return
	}
	if t.MessageID != "" {
		c.lastTapID = t.MessageID
	}
	if c.navigateLocked(t) {
		c.pending = nil
		return
	}
	c.pending = &t
	c.logger.Debug("navigation deferred until ready", zap.Int("kind", int(t.Kind)), zap.String("chat_id", t.ChatID))
}

// HandleReady runs once the navigator has mounted. lastTap is the
// notification that launched the app, if any. A tap received since then
// takes precedence, and a launch tap HandleTap already navigated to is not
// followed again.
func (c *Coordinator) HandleReady(lastTap *Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lastTap != nil && (c.navigated || (lastTap.MessageID != "" && lastTap.MessageID == c.lastTapID)) {
		c.logger.Debug("launch tap already handled", zap.String("message_id", lastTap.MessageID))
		lastTap = nil
	}
	if c.pending == nil && lastTap != nil {
		t := *lastTap
		c.pending = &t
		c.launchID = t.MessageID
	}
	if c.pending == nil {
		return
	}
	if c.navigateLocked(*c.pending) {
		c.pending = nil
	}
}

func (c *Coordinator) navigateLocked(t Target) bool {
	if !c.nav.IsReady() {
		return false
	}
	c.lockedUntil = c.now().Add(c.lockFor)
	c.navigated = true

	route, params := t.route()
	c.nav.NavigateTo(route, params)
	return true
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		if c.pending.Kind == TargetAlert {
			return State{Kind: StatePendingAlert}
		}
		return State{Kind: StatePendingChat, ChatID: c.pending.ChatID}
	}
	if c.now().Before(c.lockedUntil) {
		return State{Kind: StateLocked, Until: c.lockedUntil}
	}
	return State{Kind: StateIdle}
}

// Idle reports no pending target and no active lock
func (c *Coordinator) Idle() bool {
	return c.State().Kind == StateIdle
}

// Navigated reports whether any notification-driven navigation happened
func (c *Coordinator) Navigated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigated
}

// Clear drops the pending target
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}
