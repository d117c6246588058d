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

type FeedbackSubmitter interface {
	Submit(ctx context.Context, sessionID, messageContent, feedbackType string, comment *string) (*models.FeedbackRecord, error)
}

type FeedbackHandler struct {
	feedbackService FeedbackSubmitter
	logger          *zap.Logger
}

func NewFeedbackHandler(feedbackService FeedbackSubmitter, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// Submit godoc
// @Summary Rate an assistant reply
// @Description Store positive or negative feedback; commented negative feedback is fed back into later prompts
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body dto.FeedbackRequest true "Feedback request"
// @Success 201 {object} dto.FeedbackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	fb, err := h.feedbackService.Submit(c.Context(), req.SessionID, req.MessageContent, req.FeedbackType, req.Comment)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFeedback) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to submit feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to submit feedback",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FeedbackResponse{
		ID:        fb.ID.String(),
		CreatedAt: fb.CreatedAt.Format(time.RFC3339),
	})
}
