package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scm-chat/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidFeedback wraps every feedback validation failure.
var ErrInvalidFeedback = errors.New("invalid feedback")

type FeedbackWriter interface {
	Create(ctx context.Context, fb *models.FeedbackRecord) error
}

type FeedbackService struct {
	repo   FeedbackWriter
	logger *zap.Logger
}

func NewFeedbackService(repo FeedbackWriter, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		logger: logger,
	}
}

// Submit records a rating of an assistant reply. Blank comments are stored as NULL
// so they never show up as prompt hints.
func (s *FeedbackService) Submit(ctx context.Context, sessionID, messageContent, feedbackType string, comment *string) (*models.FeedbackRecord, error) {
	fbType := models.FeedbackType(strings.ToLower(strings.TrimSpace(feedbackType)))
	if fbType != models.FeedbackPositive && fbType != models.FeedbackNegative {
		return nil, fmt.Errorf("%w: feedbackType must be positive or negative", ErrInvalidFeedback)
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidFeedback)
	}
	if strings.TrimSpace(messageContent) == "" {
		return nil, fmt.Errorf("%w: messageContent is required", ErrInvalidFeedback)
	}

	var userComment *string
	if comment != nil {
		if trimmed := strings.TrimSpace(*comment); trimmed != "" {
			cleaned := sanitizeUTF8(trimmed)
			userComment = &cleaned
		}
	}

	fb := &models.FeedbackRecord{
		ID:             uuid.New(),
		SessionID:      sessionID,
		MessageContent: sanitizeUTF8(messageContent),
		FeedbackType:   fbType,
		UserComment:    userComment,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, fb); err != nil {
		s.logger.Error("Failed to store feedback", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	s.logger.Info("Feedback stored",
		zap.String("session_id", sessionID),
		zap.String("feedback_type", string(fbType)),
		zap.Bool("has_comment", userComment != nil),
	)
	return fb, nil
}
