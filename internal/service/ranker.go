package service

import (
	"regexp"
	"sort"
	"strings"

	"scm-chat/internal/models"
)

// strongPhrases are domain phrases worth more than a plain token hit.
// "consolidat" and "consolidation" are both listed and both score.
var strongPhrases = []string{
	"new item", "ocl", "consolidat", "consolidation", "quantity", "qty",
	"not assigned", "wm mobile", "receiving", "putaway",
}

const (
	tokenQuestionWeight = 2
	tokenAnswerWeight   = 2
	phraseWeight        = 6
	issueCodeBoost      = 5
	genericPenalty      = -8
)

var genericPrePutaway = regexp.MustCompile(`(?is)pre[- ]?receiving.*putaway`)

// IsGenericAnswer reports boilerplate answers that fit almost any question.
func IsGenericAnswer(answer string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(answer))
	if strings.HasPrefix(trimmed, "in the given scenario") {
		return true
	}
	return genericPrePutaway.MatchString(answer)
}

type ScoredEntry struct {
	Entry *models.KnowledgeEntry
	Score int
}

// ScoreEntry applies the ranking heuristic to a single candidate.
func ScoreEntry(entry *models.KnowledgeEntry, message string) int {
	question := strings.ToLower(entry.Question)
	answer := strings.ToLower(entry.Answer)
	lowerMsg := strings.ToLower(message)

	score := 0
	for _, term := range messageTerms(message) {
		if strings.Contains(question, term) {
			score += tokenQuestionWeight
		}
		if strings.Contains(answer, term) {
			score += tokenAnswerWeight
		}
	}

	for _, phrase := range strongPhrases {
		if !strings.Contains(lowerMsg, phrase) {
			continue
		}
		if strings.Contains(question, phrase) {
			score += phraseWeight
		}
		if strings.Contains(answer, phrase) {
			score += phraseWeight
		}
	}

	if strings.HasPrefix(strings.ToUpper(entry.Code()), "ISSUE-") {
		score += issueCodeBoost
	}

	if IsGenericAnswer(entry.Answer) {
		score += genericPenalty
	}

	return score
}

// RankKnowledge orders candidates by descending score; equal scores keep retrieval order.
func RankKnowledge(entries []*models.KnowledgeEntry, message string) []ScoredEntry {
	scored := make([]ScoredEntry, len(entries))
	for i, e := range entries {
		scored[i] = ScoredEntry{Entry: e, Score: ScoreEntry(e, message)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func rankedEntries(scored []ScoredEntry) []*models.KnowledgeEntry {
	out := make([]*models.KnowledgeEntry, len(scored))
	for i, s := range scored {
		out[i] = s.Entry
	}
	return out
}
