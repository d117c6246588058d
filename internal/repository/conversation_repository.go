package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"scm-chat/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const conversationTable = "chat_conversations"

// ConversationRepository is the append-only conversation log.
type ConversationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConversationRepository(db *pgxpool.Pool, logger *zap.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ConversationRepository) Append(ctx context.Context, turn *models.ConversationTurn) error {
	sql, args, err := buildAppendTurnQuery(turn)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// History returns the turns of a session ordered by creation time, then insert order.
func (r *ConversationRepository) History(ctx context.Context, sessionID string) ([]*models.ConversationTurn, error) {
	sql, args, err := buildHistoryQuery(sessionID).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &turn.Message, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, &turn)
	}

	return turns, rows.Err()
}

func buildAppendTurnQuery(turn *models.ConversationTurn) (string, []interface{}, error) {
	metadata := turn.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal turn metadata: %w", err)
	}

	return squirrel.Insert(conversationTable).
		Columns("id", "session_id", "role", "message", "metadata", "created_at").
		Values(turn.ID, turn.SessionID, string(turn.Role), turn.Message, string(metadataJSON), turn.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func buildHistoryQuery(sessionID string) squirrel.SelectBuilder {
	return squirrel.Select("id", "session_id", "role", "message", "created_at").
		From(conversationTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at ASC", "seq ASC").
		PlaceholderFormat(squirrel.Dollar)
}
