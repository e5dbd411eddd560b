package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/auth"
	"github.com/contactbook/backend/internal/metrics"
	"github.com/contactbook/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	deviceTokenHandler *DeviceTokenHandler
	sessionHandler     *SessionHandler
	alertHandler       *AlertHandler
	chatHandler        *ChatHandler
	healthHandler      *HealthHandler
	jwtManager         *auth.JWTManager
	allowedOrigins     []string
	logger             *zap.Logger
}

// NewRouter creates a new router
func NewRouter(
	deviceTokenHandler *DeviceTokenHandler,
	sessionHandler *SessionHandler,
	alertHandler *AlertHandler,
	chatHandler *ChatHandler,
	healthHandler *HealthHandler,
	jwtManager *auth.JWTManager,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		deviceTokenHandler: deviceTokenHandler,
		sessionHandler:     sessionHandler,
		alertHandler:       alertHandler,
		chatHandler:        chatHandler,
		healthHandler:      healthHandler,
		jwtManager:         jwtManager,
		allowedOrigins:     allowedOrigins,
		logger:             logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(rt.allowedOrigins))

	// Health endpoints (no auth required)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})
	r.Handle("/metrics", metrics.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session/refresh", rt.sessionHandler.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.jwtManager))

			// the websocket route must not be compressed
			r.Get("/ws", rt.chatHandler.HandleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Compress(5))

				r.Get("/session", rt.sessionHandler.Current)
				r.Post("/device-tokens", rt.deviceTokenHandler.Register)

				r.Get("/alerts", rt.alertHandler.List)
				r.Post("/alerts/broadcast", rt.alertHandler.Broadcast)
				r.Post("/alerts/{id}/read", rt.alertHandler.MarkRead)

				r.Post("/chats/{chatId}/messages", rt.chatHandler.SendMessage)
			})
		})
	})

	return r
}
