package service

import (
	"context"
	"strings"
	"sync"

	"scm-chat/internal/models"
	"scm-chat/internal/repository"

	"github.com/google/uuid"
)

// fakeKnowledgeStore evaluates predicates in memory over a fixed table.
type fakeKnowledgeStore struct {
	entries []*models.KnowledgeEntry
	queries []repository.KnowledgeQuery
	failOn  func(q repository.KnowledgeQuery) error
}

func (s *fakeKnowledgeStore) Search(_ context.Context, q repository.KnowledgeQuery) ([]*models.KnowledgeEntry, error) {
	s.queries = append(s.queries, q)
	if s.failOn != nil {
		if err := s.failOn(q); err != nil {
			return nil, err
		}
	}

	var out []*models.KnowledgeEntry
	for _, e := range s.entries {
		for _, p := range q.AnyOf {
			if predicateMatches(p, e) {
				out = append(out, e)
				break
			}
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func predicateMatches(p repository.Predicate, e *models.KnowledgeEntry) bool {
	var field string
	switch p.Column {
	case "scn_code":
		field = e.Code()
	case "question":
		field = e.Question
	case "answer":
		field = e.Answer
	}
	field = strings.ToLower(field)
	value := strings.ToLower(p.Value)

	switch p.Kind {
	case repository.MatchPrefix:
		return strings.HasPrefix(field, value)
	case repository.MatchCode:
		unify := strings.NewReplacer("_", "-")
		return strings.Contains(unify.Replace(field), unify.Replace(value))
	case repository.MatchKeyword:
		for _, kw := range e.Keywords {
			if kw == value {
				return true
			}
		}
		return false
	default:
		return strings.Contains(field, value)
	}
}

// hasColumnPredicate reports whether any recorded query used kind on column.
func (s *fakeKnowledgeStore) hasColumnPredicate(column string, kind repository.MatchKind) bool {
	for _, q := range s.queries {
		for _, p := range q.AnyOf {
			if p.Column == column && p.Kind == kind {
				return true
			}
		}
	}
	return false
}

func entry(code, question, answer string) *models.KnowledgeEntry {
	e := &models.KnowledgeEntry{ID: uuid.New(), Question: question, Answer: answer}
	if code != "" {
		e.ScnCode = &code
	}
	return e
}

type fakeConversationLog struct {
	mu    sync.Mutex
	turns []*models.ConversationTurn
	err   error
}

func (l *fakeConversationLog) Append(_ context.Context, turn *models.ConversationTurn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.turns = append(l.turns, turn)
	return nil
}

func (l *fakeConversationLog) History(_ context.Context, sessionID string) ([]*models.ConversationTurn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.ConversationTurn
	for _, t := range l.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (l *fakeConversationLog) byRole(sessionID string, role models.Role) []*models.ConversationTurn {
	turns, _ := l.History(context.Background(), sessionID)
	var out []*models.ConversationTurn
	for _, t := range turns {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

type fakeFeedbackStore struct {
	records []*models.FeedbackRecord
	created []*models.FeedbackRecord
	limit   int
}

func (f *fakeFeedbackStore) RecentNegative(_ context.Context, limit int) ([]*models.FeedbackRecord, error) {
	f.limit = limit
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeFeedbackStore) Create(_ context.Context, fb *models.FeedbackRecord) error {
	f.created = append(f.created, fb)
	return nil
}

type fakeSessionState struct {
	pending map[string]string
}

func newFakeSessionState() *fakeSessionState {
	return &fakeSessionState{pending: map[string]string{}}
}

func (s *fakeSessionState) PendingScript(_ context.Context, sessionID string) (string, error) {
	return s.pending[sessionID], nil
}

func (s *fakeSessionState) SetPendingScript(_ context.Context, sessionID, key string) error {
	s.pending[sessionID] = key
	return nil
}

func (s *fakeSessionState) ClearPendingScript(_ context.Context, sessionID string) error {
	delete(s.pending, sessionID)
	return nil
}

type fakeCompleter struct {
	calls int
	last  CompletionRequest
	reply string
	err   error
}

func (c *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	c.calls++
	c.last = req
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}
