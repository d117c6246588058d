package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// FeedbackRecord is a user rating of an earlier assistant reply.
type FeedbackRecord struct {
	ID             uuid.UUID    `db:"id"`
	SessionID      string       `db:"session_id"`
	MessageContent string       `db:"message_content"` // the rated assistant reply
	FeedbackType   FeedbackType `db:"feedback_type"`
	UserComment    *string      `db:"user_comment"`
	CreatedAt      time.Time    `db:"created_at"`
}
