package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/middleware"
	"github.com/contactbook/backend/pkg/response"
	"github.com/contactbook/backend/pkg/validator"
)

type AlertStore interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Alert, error)
	MarkRead(ctx context.Context, userID, alertID uuid.UUID) error
	Broadcast(ctx context.Context, recipients []uuid.UUID, title, body string) (string, int)
}

type AlertHandler struct {
	alerts AlertStore
	logger *zap.Logger
}

func NewAlertHandler(alerts AlertStore, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

// List returns the caller's alerts, newest first
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	alerts, err := h.alerts.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		response.InternalError(w, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}

	response.OK(w, alerts)
}

func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid alert id")
		return
	}

	if err := h.alerts.MarkRead(r.Context(), userID, alertID); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			response.NotFound(w, "alert not found")
			return
		}
		h.logger.Error("Failed to mark alert read", zap.Error(err))
		response.InternalError(w, "failed to mark alert read")
		return
	}

	response.NoContent(w)
}

type broadcastRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=500,dive,uuid"`
	Title      string   `json:"title" validate:"required,max=120"`
	Body       string   `json:"body" validate:"max=1000"`
}

// Broadcast sends a generic alert to a list of users
func (h *AlertHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.ValidationFailed(w, err)
		return
	}

	recipients := make([]uuid.UUID, 0, len(req.Recipients))
	for _, s := range req.Recipients {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(w, "invalid recipient id")
			return
		}
		recipients = append(recipients, id)
	}

	messageID, delivered := h.alerts.Broadcast(r.Context(), recipients,
		validator.SanitizeString(req.Title, 120), validator.SanitizeString(req.Body, 1000))

	response.Created(w, map[string]interface{}{
		"message_id": messageID,
		"delivered":  delivered,
	})
}
