// Package app runs the client core as a single event loop. Platform
// callbacks and the socket post events on channels; one goroutine drains
// them, so the ledger, coordinator and sequencer never see interleaved
// handlers.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/fallback"
	"github.com/contactbook/backend/internal/client/ledger"
	"github.com/contactbook/backend/internal/client/navigation"
	"github.com/contactbook/backend/internal/client/platform"
	"github.com/contactbook/backend/internal/domain"
)

type AppState int

const (
	Foreground AppState = iota
	Background
)

// Events are the inputs of the loop
type Events struct {
	PushReceived   chan map[string]string
	PushTapped     chan map[string]string
	Socket         chan fallback.Message
	NavigatorReady chan struct{}
	FontsLoaded    chan struct{}
	AppState       chan AppState
	Logout         chan struct{}
}

func NewEvents(buffer int) *Events {
	return &Events{
		PushReceived:   make(chan map[string]string, buffer),
		PushTapped:     make(chan map[string]string, buffer),
		Socket:         make(chan fallback.Message, buffer),
		NavigatorReady: make(chan struct{}, 1),
		FontsLoaded:    make(chan struct{}, 1),
		AppState:       make(chan AppState, buffer),
		Logout:         make(chan struct{}, 1),
	}
}

type Registrar interface {
	Register(ctx context.Context, userID string) (string, bool)
	Forget()
}

type Notifier interface {
	MaybeNotify(ctx context.Context, msg fallback.Message) bool
}

type SessionClearer interface {
	Clear() error
}

// Deps are the collaborators of the loop
type Deps struct {
	Ledger      *ledger.Ledger
	Registrar   Registrar
	Fallback    Notifier
	Coordinator *navigation.Coordinator
	Sequencer   *navigation.Sequencer
	Navigator   platform.Navigator
	Launch      platform.LaunchSource
	Identity    navigation.IdentityStore
	Validator   navigation.SessionValidator
	// Sessions is cleared on logout when set
	Sessions SessionClearer
}

type registration struct {
	userID string
	token  string
	ok     bool
}

type App struct {
	deps   Deps
	events *Events
	logger *zap.Logger

	sessions      chan navigation.SessionResult
	registrations chan registration
	wg            sync.WaitGroup

	// loop-owned state
	foreground   bool
	readyHandled bool
	userID       string
	// userCtx scopes registrations to the signed-in user; logout cancels it
	userCtx    context.Context
	cancelUser context.CancelFunc
}

func New(deps Deps, events *Events, logger *zap.Logger) *App {
	return &App{
		deps:          deps,
		events:        events,
		logger:        logger.Named("app"),
		sessions:      make(chan navigation.SessionResult, 1),
		registrations: make(chan registration, 1),
		foreground:    true,
	}
}

// Run starts the bootstrap session check and processes events until ctx is
// done. It waits for its background calls before returning.
func (a *App) Run(ctx context.Context) {
	defer a.wg.Wait()
	defer a.endUser()

	a.goOff(ctx, func(ctx context.Context) {
		res := navigation.CheckSession(ctx, a.deps.Identity, a.deps.Validator)
		select {
		case a.sessions <- res:
		case <-ctx.Done():
		}
	})

	for {
		select {
		case <-ctx.Done():
			return

		case data := <-a.events.PushReceived:
			a.onPushReceived(data)

		case data := <-a.events.PushTapped:
			a.onPushTapped(data)

		case msg := <-a.events.Socket:
			a.onSocket(ctx, msg)

		case <-a.events.NavigatorReady:
			a.onNavigatorReady(ctx)

		case <-a.events.FontsLoaded:
			a.deps.Sequencer.FontsLoaded()
			a.evaluate()

		case s := <-a.events.AppState:
			a.onAppState(ctx, s)

		case <-a.events.Logout:
			a.onLogout()

		case res := <-a.sessions:
			a.onSession(ctx, res)

		case reg := <-a.registrations:
			if reg.ok {
				a.logger.Debug("push registration complete", zap.String("user_id", reg.userID))
			}
		}
	}
}

func (a *App) goOff(ctx context.Context, fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(ctx)
	}()
}

func (a *App) onPushReceived(data map[string]string) {
	id := data[domain.KeyMessageID]
	if id == "" {
		a.logger.Debug("push without message id dropped")
		return
	}
	a.deps.Ledger.MarkSeen(id)
}

// drainPushes records every push already queued so a socket event handled
// next cannot miss a push that arrived first.
func (a *App) drainPushes() {
	for {
		select {
		case data := <-a.events.PushReceived:
			a.onPushReceived(data)
		default:
			return
		}
	}
}

func (a *App) onPushTapped(data map[string]string) {
	a.deps.Ledger.MarkSeen(data[domain.KeyMessageID])

	target, ok := navigation.TargetFromData(data)
	if !ok {
		a.logger.Debug("tapped push cannot be routed")
		return
	}
	a.deps.Coordinator.HandleTap(target)
	a.evaluate()
}

func (a *App) onSocket(ctx context.Context, msg fallback.Message) {
	a.drainPushes()
	if !a.foreground {
		return
	}
	a.deps.Fallback.MaybeNotify(ctx, msg)
}

// onNavigatorReady is a no-op once handled. A signal that arrives before the
// navigator reports ready is ignored and the next one is used.
func (a *App) onNavigatorReady(ctx context.Context) {
	if a.readyHandled {
		return
	}
	if !a.deps.Navigator.IsReady() {
		a.logger.Debug("ready signal before navigator mounted")
		return
	}
	a.readyHandled = true

	var lastTap *navigation.Target
	if data, ok := a.deps.Launch.LastTapResponse(ctx); ok {
		a.deps.Ledger.MarkSeen(data[domain.KeyMessageID])
		if t, ok := navigation.TargetFromData(data); ok {
			lastTap = &t
		}
	}
	a.deps.Coordinator.HandleReady(lastTap)
	a.evaluate()
}

// evaluate gives the sequencer a chance to reset. Before the ready event the
// launch tap is unknown, so the sequencer waits for it.
func (a *App) evaluate() {
	if !a.readyHandled {
		return
	}
	a.deps.Sequencer.Evaluate()
}

func (a *App) onSession(ctx context.Context, res navigation.SessionResult) {
	a.deps.Sequencer.SetSession(res)
	a.evaluate()

	if res.Authenticated {
		a.userID = res.UserID
		a.register(ctx)
	}
}

func (a *App) onAppState(ctx context.Context, s AppState) {
	wasForeground := a.foreground
	a.foreground = s == Foreground
	if !wasForeground && a.foreground && a.userID != "" {
		a.register(ctx)
	}
}

func (a *App) register(ctx context.Context) {
	if a.userCtx == nil {
		a.userCtx, a.cancelUser = context.WithCancel(ctx)
	}
	userID := a.userID
	a.goOff(a.userCtx, func(ctx context.Context) {
		token, ok := a.deps.Registrar.Register(ctx, userID)
		select {
		case a.registrations <- registration{userID: userID, token: token, ok: ok}:
		case <-ctx.Done():
		}
	})
}

// endUser cancels registrations started for the signed-in user
func (a *App) endUser() {
	if a.cancelUser != nil {
		a.cancelUser()
	}
	a.userCtx, a.cancelUser = nil, nil
}

// onLogout drops the pending target and the uploaded token record. The
// ledger is kept: messages already shown stay suppressed.
func (a *App) onLogout() {
	a.deps.Coordinator.Clear()
	a.userID = ""
	a.deps.Sequencer.SetSession(navigation.SessionResult{})
	a.endUser()

	// Forget waits for an in-flight registration, which no longer records
	// its pair once cancelled
	reg := a.deps.Registrar
	a.goOff(context.Background(), func(context.Context) { reg.Forget() })

	if a.deps.Sessions != nil {
		if err := a.deps.Sessions.Clear(); err != nil {
			a.logger.Warn("failed to clear stored session", zap.Error(err))
		}
	}
	if a.deps.Navigator.IsReady() {
		a.deps.Navigator.ResetTo(platform.RouteLogin)
	}
	a.logger.Info("logged out")
}
