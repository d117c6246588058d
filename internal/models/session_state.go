package models

import "time"

// SessionState carries the conversational state that must survive between turns.
// AwaitingScriptConfirmation holds the script key offered on the previous turn.
type SessionState struct {
	SessionID                  string    `db:"session_id" json:"session_id"`
	AwaitingScriptConfirmation *string   `db:"awaiting_script_confirmation" json:"awaiting_script_confirmation,omitempty"`
	UpdatedAt                  time.Time `db:"updated_at" json:"updated_at"`
}

func (s *SessionState) PendingScript() string {
	if s == nil || s.AwaitingScriptConfirmation == nil {
		return ""
	}
	return *s.AwaitingScriptConfirmation
}
