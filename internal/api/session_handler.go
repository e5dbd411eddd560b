package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/auth"
	"github.com/contactbook/backend/internal/middleware"
	"github.com/contactbook/backend/pkg/response"
	"github.com/contactbook/backend/pkg/validator"
)

// SessionHandler lets a device check its stored session and rotate it
type SessionHandler struct {
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewSessionHandler(jwtManager *auth.JWTManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{jwtManager: jwtManager, logger: logger}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Current answers 200 with the user id when the access token is valid.
// Invalid tokens never reach this handler.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}
	response.OK(w, map[string]string{"user_id": userID.String()})
}

// Refresh exchanges a refresh token for a new token pair
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.ValidationFailed(w, err)
		return
	}

	claims, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		response.Unauthorized(w, "invalid refresh token")
		return
	}

	pair, err := h.jwtManager.GenerateTokenPair(claims.UserID)
	if err != nil {
		h.logger.Error("Failed to generate token pair", zap.Error(err))
		response.InternalError(w, "failed to refresh session")
		return
	}

	response.OK(w, pair)
}
