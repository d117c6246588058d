package repository

import (
	"context"
	"strings"

	"scm-chat/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const knowledgeTable = "scm_knowledge"

var knowledgeColumns = []string{
	"id", "scn_code", "question", "answer", "keywords", "link", "document_url", "screenshots", "created_at",
}

type MatchKind int

const (
	// MatchContains is a case-insensitive substring match with wildcards escaped.
	MatchContains MatchKind = iota
	// MatchPrefix is a case-insensitive prefix match.
	MatchPrefix
	// MatchCode is a substring match where "-" and "_" match either separator.
	MatchCode
	// MatchKeyword checks membership in the keywords array.
	MatchKeyword
)

// Predicate is one ORed condition of a knowledge search.
type Predicate struct {
	Column string
	Kind   MatchKind
	Value  string
}

func Contains(column, value string) Predicate {
	return Predicate{Column: column, Kind: MatchContains, Value: value}
}

func HasPrefix(column, value string) Predicate {
	return Predicate{Column: column, Kind: MatchPrefix, Value: value}
}

func CodeLike(column, value string) Predicate {
	return Predicate{Column: column, Kind: MatchCode, Value: value}
}

func HasKeyword(value string) Predicate {
	return Predicate{Column: "keywords", Kind: MatchKeyword, Value: strings.ToLower(value)}
}

// KnowledgeQuery selects entries matching any of its predicates.
type KnowledgeQuery struct {
	AnyOf []Predicate
	Limit int
}

type KnowledgeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewKnowledgeRepository(db *pgxpool.Pool, logger *zap.Logger) *KnowledgeRepository {
	return &KnowledgeRepository{
		db:     db,
		logger: logger,
	}
}

// Search returns entries matching at least one predicate, in insertion order.
func (r *KnowledgeRepository) Search(ctx context.Context, q KnowledgeQuery) ([]*models.KnowledgeEntry, error) {
	if len(q.AnyOf) == 0 {
		return nil, nil
	}

	sql, args, err := buildSearchQuery(q).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.KnowledgeEntry
	for rows.Next() {
		var kb models.KnowledgeEntry
		if err := rows.Scan(
			&kb.ID, &kb.ScnCode, &kb.Question, &kb.Answer, &kb.Keywords, &kb.Link, &kb.DocumentURL, &kb.Screenshots, &kb.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, &kb)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("Knowledge query executed",
		zap.Int("predicates", len(q.AnyOf)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Upsert inserts or replaces entries by id. Used by the seeder only.
func (r *KnowledgeRepository) Upsert(ctx context.Context, entries []*models.KnowledgeEntry) error {
	if len(entries) == 0 {
		return nil
	}

	sql, args, err := buildUpsertQuery(entries).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func buildSearchQuery(q KnowledgeQuery) squirrel.SelectBuilder {
	or := squirrel.Or{}
	for _, p := range q.AnyOf {
		or = append(or, p.sqlizer())
	}

	query := squirrel.Select(knowledgeColumns...).
		From(knowledgeTable).
		Where(or).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)

	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}
	return query
}

func buildUpsertQuery(entries []*models.KnowledgeEntry) squirrel.InsertBuilder {
	builder := squirrel.Insert(knowledgeTable).
		Columns(knowledgeColumns...).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			scn_code = EXCLUDED.scn_code,
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			keywords = EXCLUDED.keywords,
			link = EXCLUDED.link,
			document_url = EXCLUDED.document_url,
			screenshots = EXCLUDED.screenshots`).
		PlaceholderFormat(squirrel.Dollar)

	for _, kb := range entries {
		builder = builder.Values(kb.ID, kb.ScnCode, kb.Question, kb.Answer, kb.Keywords, kb.Link, kb.DocumentURL, kb.Screenshots, kb.CreatedAt)
	}
	return builder
}

func (p Predicate) sqlizer() squirrel.Sqlizer {
	switch p.Kind {
	case MatchPrefix:
		return squirrel.ILike{p.Column: escapeLike(p.Value) + "%"}
	case MatchCode:
		return squirrel.ILike{p.Column: "%" + codePattern(p.Value) + "%"}
	case MatchKeyword:
		return squirrel.Expr("? = ANY(keywords)", p.Value)
	default:
		return squirrel.ILike{p.Column: "%" + escapeLike(p.Value) + "%"}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// codePattern escapes s but lets either separator match "-" or "_".
func codePattern(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`).Replace(s)
	return strings.ReplaceAll(escaped, "-", "_")
}
