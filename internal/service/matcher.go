package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"scm-chat/internal/models"
	"scm-chat/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRetrieval marks a knowledge store failure that must reach the caller.
var ErrRetrieval = errors.New("knowledge retrieval failed")

// KnowledgeStore is the read-only query surface of the knowledge table.
type KnowledgeStore interface {
	Search(ctx context.Context, q repository.KnowledgeQuery) ([]*models.KnowledgeEntry, error)
}

type MatchTier string

const (
	TierNone     MatchTier = "none"
	TierScenario MatchTier = "scenario_code"
	TierIssue    MatchTier = "issue_keyword"
	TierFullText MatchTier = "full_text"
	TierTerms    MatchTier = "terms"
)

// issueKeywords flag a message as a problem report.
var issueKeywords = []string{
	"error", "issue", "problem", "fail", "not working", "broken", "fix", "solve", "resolution", "warning",
	"consolidation", "ocl", "new item", "quantity",
}

// MatchResult is the deduplicated candidate set and the tier that produced it.
type MatchResult struct {
	Entries    []*models.KnowledgeEntry
	Tier       MatchTier
	Codes      []ScenarioCode
	IssueTerms []string
}

type KnowledgeMatcher struct {
	store      KnowledgeStore
	issueLimit int
	logger     *zap.Logger
}

func NewKnowledgeMatcher(store KnowledgeStore, issueLimit int, logger *zap.Logger) *KnowledgeMatcher {
	if issueLimit <= 0 {
		issueLimit = 10
	}
	return &KnowledgeMatcher{
		store:      store,
		issueLimit: issueLimit,
		logger:     logger,
	}
}

// Match runs the tiers in priority order and stops at the first tier with results.
// history is earlier conversation text; it only contributes scenario codes.
func (m *KnowledgeMatcher) Match(ctx context.Context, message, history string) (*MatchResult, error) {
	result := &MatchResult{Tier: TierNone}

	combined := message
	if history != "" {
		combined = message + "\n" + history
	}

	result.Codes = ExtractScenarioCodes(combined)
	if len(result.Codes) > 0 {
		entries := m.searchScenarioCodes(ctx, result.Codes)
		if len(entries) > 0 {
			result.Entries = entries
			result.Tier = TierScenario
			return result, nil
		}
	}

	result.IssueTerms = matchIssueKeywords(message)
	if len(result.IssueTerms) > 0 {
		entries := m.searchIssues(ctx, result.IssueTerms)
		if len(entries) > 0 {
			result.Entries = entries
			result.Tier = TierIssue
			return result, nil
		}
	}

	entries, tier, err := m.searchFreeText(ctx, message)
	if err != nil {
		return nil, err
	}
	result.Entries = entries
	result.Tier = tier
	return result, nil
}

func (m *KnowledgeMatcher) searchScenarioCodes(ctx context.Context, codes []ScenarioCode) []*models.KnowledgeEntry {
	var found []*models.KnowledgeEntry
	queried := make(map[string]struct{}, len(codes))

	for _, code := range codes {
		if _, ok := queried[code.Raw]; ok {
			continue
		}
		queried[code.Raw] = struct{}{}

		var preds []repository.Predicate
		for _, p := range code.patterns() {
			preds = append(preds,
				repository.CodeLike("scn_code", p),
				repository.CodeLike("question", p),
			)
		}

		entries, err := m.store.Search(ctx, repository.KnowledgeQuery{AnyOf: preds})
		if err != nil {
			m.logger.Warn("Scenario code search failed", zap.String("code", code.Raw), zap.Error(err))
			continue
		}
		found = append(found, entries...)
	}

	found = dedupeEntries(found)
	m.logger.Info("Scenario code tier completed",
		zap.Int("codes", len(queried)),
		zap.Int("results", len(found)),
	)
	return found
}

func (m *KnowledgeMatcher) searchIssues(ctx context.Context, terms []string) []*models.KnowledgeEntry {
	preds := []repository.Predicate{repository.HasPrefix("scn_code", "ISSUE-")}
	for _, term := range terms {
		preds = append(preds,
			repository.Contains("question", term),
			repository.Contains("answer", term),
			repository.HasKeyword(term),
		)
	}

	entries, err := m.store.Search(ctx, repository.KnowledgeQuery{AnyOf: preds, Limit: m.issueLimit})
	if err != nil {
		m.logger.Warn("Issue keyword search failed", zap.Strings("terms", terms), zap.Error(err))
		return nil
	}

	entries = dedupeEntries(entries)
	m.logger.Info("Issue keyword tier completed",
		zap.Strings("terms", terms),
		zap.Int("results", len(entries)),
	)
	return entries
}

func (m *KnowledgeMatcher) searchFreeText(ctx context.Context, message string) ([]*models.KnowledgeEntry, MatchTier, error) {
	full := strings.TrimSpace(message)
	if full != "" {
		entries, err := m.store.Search(ctx, repository.KnowledgeQuery{AnyOf: []repository.Predicate{
			repository.Contains("question", full),
			repository.Contains("answer", full),
		}})
		if err != nil {
			return nil, TierNone, fmt.Errorf("%w: full text search: %w", ErrRetrieval, err)
		}
		if len(entries) > 0 {
			m.logger.Info("Full text tier completed", zap.Int("results", len(entries)))
			return dedupeEntries(entries), TierFullText, nil
		}
	}

	terms := messageTerms(message)
	if len(terms) == 0 {
		return nil, TierNone, nil
	}

	preds := make([]repository.Predicate, 0, len(terms)*3)
	for _, term := range terms {
		preds = append(preds,
			repository.Contains("question", term),
			repository.Contains("answer", term),
			repository.Contains("scn_code", term),
		)
	}

	entries, err := m.store.Search(ctx, repository.KnowledgeQuery{AnyOf: preds})
	if err != nil {
		return nil, TierNone, fmt.Errorf("%w: term search: %w", ErrRetrieval, err)
	}

	entries = dedupeEntries(entries)
	m.logger.Info("Term tier completed", zap.Int("terms", len(terms)), zap.Int("results", len(entries)))
	if len(entries) == 0 {
		return nil, TierNone, nil
	}
	return entries, TierTerms, nil
}

// messageTerms lowercases and splits on whitespace, keeping tokens longer than two characters.
func messageTerms(message string) []string {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(message)) {
		if utf8.RuneCountInString(tok) > 2 {
			terms = append(terms, tok)
		}
	}
	return terms
}

func matchIssueKeywords(message string) []string {
	lower := strings.ToLower(message)
	var matched []string
	for _, kw := range issueKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func dedupeEntries(entries []*models.KnowledgeEntry) []*models.KnowledgeEntry {
	if len(entries) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(entries))
	out := make([]*models.KnowledgeEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
