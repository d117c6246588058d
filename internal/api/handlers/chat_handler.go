package handlers

import (
	"context"
	"errors"
	"time"

	"scm-chat/internal/dto"
	"scm-chat/internal/models"
	"scm-chat/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	rateLimitedMessage   = "Rate limit exceeded. Please try again in a moment."
	quotaExceededMessage = "Service quota exceeded. Please contact support."
)

// ChatResponder is the part of the chat service the HTTP layer needs.
type ChatResponder interface {
	Chat(ctx context.Context, message, sessionID string) (*service.ChatResult, error)
	History(ctx context.Context, sessionID string) ([]*models.ConversationTurn, error)
}

type ChatHandler struct {
	chatService ChatResponder
	logger      *zap.Logger
}

func NewChatHandler(chatService ChatResponder, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Send a chat message
// @Description Answer a support question from the knowledge base, the script table, or the language model
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat request"
// @Success 200 {object} dto.ChatResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("Invalid chat request body", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	result, err := h.chatService.Chat(c.Context(), req.Message, req.SessionID)
	if err != nil {
		status, message := classifyChatError(err)
		h.logger.Error("Chat request failed",
			zap.String("session_id", req.SessionID),
			zap.Int("status", status),
			zap.Error(err),
		)
		return c.Status(status).JSON(dto.ErrorResponse{Error: message})
	}

	return c.JSON(dto.ChatResponse{
		Reply:     result.Reply,
		SessionID: result.SessionID,
	})
}

// History godoc
// @Summary Get conversation history
// @Description List the turns of a chat session in creation order
// @Tags chat
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dto.HistoryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat/{sessionId}/history [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	turns, err := h.chatService.History(c.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load history", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to load history",
		})
	}

	resp := dto.HistoryResponse{
		SessionID: sessionID,
		Turns:     make([]dto.TurnResponse, 0, len(turns)),
	}
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, dto.TurnResponse{
			Role:      string(turn.Role),
			Message:   turn.Message,
			CreatedAt: turn.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(resp)
}

func classifyChatError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return fiber.StatusTooManyRequests, rateLimitedMessage
	case errors.Is(err, service.ErrQuotaExceeded):
		return fiber.StatusPaymentRequired, quotaExceededMessage
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}
