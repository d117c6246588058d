package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scm-chat/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionStateTable = "chat_session_state"

// SessionStateRepository keeps the pending script offer next to the conversation log.
type SessionStateRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSessionStateRepository(db *pgxpool.Pool, logger *zap.Logger) *SessionStateRepository {
	return &SessionStateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SessionStateRepository) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	sql, args, err := squirrel.Select("session_id", "awaiting_script_confirmation", "updated_at").
		From(sessionStateTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var state models.SessionState
	err = r.db.QueryRow(ctx, sql, args...).Scan(&state.SessionID, &state.AwaitingScriptConfirmation, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.SessionState{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *SessionStateRepository) PendingScript(ctx context.Context, sessionID string) (string, error) {
	state, err := r.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return state.PendingScript(), nil
}

func (r *SessionStateRepository) SetPendingScript(ctx context.Context, sessionID, scriptKey string) error {
	return r.save(ctx, sessionID, &scriptKey)
}

func (r *SessionStateRepository) ClearPendingScript(ctx context.Context, sessionID string) error {
	return r.save(ctx, sessionID, nil)
}

func (r *SessionStateRepository) save(ctx context.Context, sessionID string, pending *string) error {
	sql, args, err := buildSaveStateQuery(sessionID, pending, time.Now().UTC()).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func buildSaveStateQuery(sessionID string, pending *string, now time.Time) squirrel.InsertBuilder {
	return squirrel.Insert(sessionStateTable).
		Columns("session_id", "awaiting_script_confirmation", "updated_at").
		Values(sessionID, pending, now).
		Suffix("ON CONFLICT (session_id) DO UPDATE SET awaiting_script_confirmation = EXCLUDED.awaiting_script_confirmation, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

// RedisSessionStateRepository stores the pending offer in Redis with a TTL.
type RedisSessionStateRepository struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSessionStateRepository(client *goredis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionStateRepository {
	return &RedisSessionStateRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func pendingScriptKey(sessionID string) string {
	return fmt.Sprintf("scm-chat:session:%s:pending_script", sessionID)
}

func (r *RedisSessionStateRepository) PendingScript(ctx context.Context, sessionID string) (string, error) {
	value, err := r.client.Get(ctx, pendingScriptKey(sessionID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return value, err
}

func (r *RedisSessionStateRepository) SetPendingScript(ctx context.Context, sessionID, scriptKey string) error {
	return r.client.Set(ctx, pendingScriptKey(sessionID), scriptKey, r.ttl).Err()
}

func (r *RedisSessionStateRepository) ClearPendingScript(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, pendingScriptKey(sessionID)).Err()
}
