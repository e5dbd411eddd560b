package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/middleware"
	"github.com/contactbook/backend/pkg/response"
	"github.com/contactbook/backend/pkg/validator"
)

type TokenRegistrar interface {
	Register(ctx context.Context, userID uuid.UUID, token, platform string) (*domain.DeviceToken, error)
}

// DeviceTokenHandler stores the push token of the caller's current device
type DeviceTokenHandler struct {
	tokens TokenRegistrar
	logger *zap.Logger
}

func NewDeviceTokenHandler(tokens TokenRegistrar, logger *zap.Logger) *DeviceTokenHandler {
	return &DeviceTokenHandler{tokens: tokens, logger: logger}
}

type registerTokenRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,push_platform"`
}

// Register upserts the token; the last device to register wins
func (h *DeviceTokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.ValidationFailed(w, err)
		return
	}

	dt, err := h.tokens.Register(r.Context(), userID, req.Token, req.Platform)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPlatform) || errors.Is(err, domain.ErrEmptyToken) {
			response.BadRequest(w, err.Error())
			return
		}
		h.logger.Error("Failed to register device token", zap.Error(err), zap.String("user_id", userID.String()))
		response.InternalError(w, "failed to register device token")
		return
	}

	response.OK(w, dt)
}
