package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one appended entry of the conversation log.
// Turns are never updated; creation order defines history.
type ConversationTurn struct {
	ID        uuid.UUID      `db:"id"`
	SessionID string         `db:"session_id"`
	Role      Role           `db:"role"`
	Message   string         `db:"message"`
	Metadata  map[string]any `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}
