package repository

import (
	"context"

	"scm-chat/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const feedbackTable = "chat_feedback"

type FeedbackRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFeedbackRepository(db *pgxpool.Pool, logger *zap.Logger) *FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.FeedbackRecord) error {
	query := squirrel.Insert(feedbackTable).
		Columns("id", "session_id", "message_content", "feedback_type", "user_comment", "created_at").
		Values(fb.ID, fb.SessionID, fb.MessageContent, string(fb.FeedbackType), fb.UserComment, fb.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// RecentNegative returns commented negative feedback, newest first.
func (r *FeedbackRepository) RecentNegative(ctx context.Context, limit int) ([]*models.FeedbackRecord, error) {
	sql, args, err := buildRecentNegativeQuery(limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.FeedbackRecord
	for rows.Next() {
		var fb models.FeedbackRecord
		if err := rows.Scan(&fb.ID, &fb.SessionID, &fb.MessageContent, &fb.FeedbackType, &fb.UserComment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &fb)
	}

	return records, rows.Err()
}

func buildRecentNegativeQuery(limit int) squirrel.SelectBuilder {
	return squirrel.Select("id", "session_id", "message_content", "feedback_type", "user_comment", "created_at").
		From(feedbackTable).
		Where(squirrel.Eq{"feedback_type": string(models.FeedbackNegative)}).
		Where(squirrel.NotEq{"user_comment": nil}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
}
