package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/middleware"
	"github.com/contactbook/backend/pkg/response"
	"github.com/contactbook/backend/pkg/validator"
)

type MessageSender interface {
	SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content string) (*domain.Message, error)
}

type ChatHandler struct {
	chats     MessageSender
	wsManager *WebSocketManager
	logger    *zap.Logger
}

func NewChatHandler(chats MessageSender, wsManager *WebSocketManager, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chats:     chats,
		wsManager: wsManager,
		logger:    logger,
	}
}

// HandleWebSocket upgrades HTTP connection to WebSocket
func (h *ChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New(),
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
	}

	if !h.wsManager.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.wsManager)
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// SendMessage stores a message and fans it out to the other participants
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.ValidationFailed(w, err)
		return
	}

	msg, err := h.chats.SendMessage(r.Context(), chatID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChatNotFound):
			response.NotFound(w, "chat not found")
		case errors.Is(err, domain.ErrNotChatMember):
			response.Forbidden(w, "not a member of this chat")
		case errors.Is(err, domain.ErrEmptyMessage):
			response.BadRequest(w, "message is empty")
		default:
			h.logger.Error("Failed to send message", zap.Error(err))
			response.InternalError(w, "failed to send message")
		}
		return
	}

	response.Created(w, msg)
}
