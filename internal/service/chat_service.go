package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"scm-chat/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyMessage is returned for a request without message text.
var ErrEmptyMessage = errors.New("message is required")

// ConversationLog is the append-only store of turns.
type ConversationLog interface {
	Append(ctx context.Context, turn *models.ConversationTurn) error
	History(ctx context.Context, sessionID string) ([]*models.ConversationTurn, error)
}

// FeedbackReader reads the negative feedback used as prompt hints.
type FeedbackReader interface {
	RecentNegative(ctx context.Context, limit int) ([]*models.FeedbackRecord, error)
}

// SessionStateStore keeps the script offer awaiting confirmation.
type SessionStateStore interface {
	PendingScript(ctx context.Context, sessionID string) (string, error)
	SetPendingScript(ctx context.Context, sessionID, scriptKey string) error
	ClearPendingScript(ctx context.Context, sessionID string) error
}

// ReplyPath names how a reply was produced.
type ReplyPath string

const (
	PathScriptDeliver  ReplyPath = "script_deliver"
	PathScriptOffer    ReplyPath = "script_offer"
	PathScenarioDetail ReplyPath = "scenario_detail"
	PathKnowledgeOnly  ReplyPath = "knowledge_only"
	PathModel          ReplyPath = "model"
)

type ChatResult struct {
	Reply     string
	SessionID string
	Path      ReplyPath
}

type ChatOptions struct {
	FeedbackLimit int
	PublicBaseURL string
}

type ChatService struct {
	matcher   *KnowledgeMatcher
	resolver  *ScriptResolver
	catalog   *ScriptCatalog
	convLog   ConversationLog
	feedback  FeedbackReader
	state     SessionStateStore
	completer Completer
	opts      ChatOptions
	logger    *zap.Logger
	now       func() time.Time
}

func NewChatService(
	matcher *KnowledgeMatcher,
	catalog *ScriptCatalog,
	convLog ConversationLog,
	feedback FeedbackReader,
	state SessionStateStore,
	completer Completer,
	opts ChatOptions,
	logger *zap.Logger,
) *ChatService {
	if opts.FeedbackLimit <= 0 || opts.FeedbackLimit > 10 {
		opts.FeedbackLimit = 10
	}
	return &ChatService{
		matcher:   matcher,
		resolver:  NewScriptResolver(catalog),
		catalog:   catalog,
		convLog:   convLog,
		feedback:  feedback,
		state:     state,
		completer: completer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// composed is one reply and the metadata logged with it.
type composed struct {
	reply    string
	path     ReplyPath
	metadata map[string]any
}

// Chat answers one user message. Exactly one user turn and one assistant turn
// are appended for every reply that is returned. When composing fails only the
// user turn is logged.
func (s *ChatService) Chat(ctx context.Context, message, sessionID string) (*ChatResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	message = sanitizeUTF8(message)
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	history, err := s.convLog.History(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Failed to load conversation history", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	s.appendTurn(ctx, sessionID, models.RoleUser, message, nil)

	out, err := s.compose(ctx, message, sessionID, history)
	if err != nil {
		s.logger.Error("Failed to compose reply", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	out.metadata["path"] = string(out.path)
	s.appendTurn(ctx, sessionID, models.RoleAssistant, out.reply, out.metadata)

	s.logger.Info("Chat reply composed",
		zap.String("session_id", sessionID),
		zap.String("path", string(out.path)),
		zap.Int("reply_length", len(out.reply)),
	)

	return &ChatResult{Reply: out.reply, SessionID: sessionID, Path: out.path}, nil
}

// History returns a session's turns in creation order.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]*models.ConversationTurn, error) {
	return s.convLog.History(ctx, sessionID)
}

func (s *ChatService) compose(ctx context.Context, message, sessionID string, history []*models.ConversationTurn) (*composed, error) {
	pending, err := s.state.PendingScript(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Failed to load session state", zap.String("session_id", sessionID), zap.Error(err))
		pending = ""
	}

	historyText := historyTranscript(history)

	match, err := s.matcher.Match(ctx, message, carriedCodes(message, historyText, pending))
	if err != nil {
		return nil, err
	}
	ranked := rankedEntries(RankKnowledge(match.Entries, message))

	res := s.resolver.Resolve(message, ExtractScenarioCodes(message), ExtractScenarioCodes(historyText), pending)

	meta := map[string]any{
		"knowledge_used": len(ranked),
		"match_tier":     string(match.Tier),
	}

	var answers []*models.KnowledgeEntry
	if res.Code != "" {
		answers = scenarioEntries(ranked, res.Code)
	}

	switch {
	case res.Action == ScriptDeliver:
		s.clearPending(ctx, sessionID, pending)
		meta["served_script"] = res.Template.Key
		meta["script_language"] = res.Template.Language
		if !res.Mentioned {
			// a bare confirmation only gets the script
			answers = nil
		}
		reply := joinNonEmpty(FormatEntries(answers), ScriptBlock(res.Template, s.opts.PublicBaseURL))
		return &composed{reply: reply, path: PathScriptDeliver, metadata: meta}, nil

	case res.Action == ScriptOffer:
		if err := s.state.SetPendingScript(ctx, sessionID, res.Template.Key); err != nil {
			s.logger.Warn("Failed to store pending script offer", zap.String("session_id", sessionID), zap.Error(err))
		}
		meta["awaiting_script_confirmation"] = res.Template.Key
		reply := joinNonEmpty(FormatEntries(answers), OfferPrompt(res.Template.Key))
		return &composed{reply: reply, path: PathScriptOffer, metadata: meta}, nil
	}

	s.clearPending(ctx, sessionID, pending)

	switch {
	case res.Action == ScriptUnavailable && match.Tier == TierScenario && len(answers) > 0:
		meta["tc_details_shown"] = true
		meta["scenario_code"] = res.Code
		return &composed{reply: FormatEntries(answers), path: PathScenarioDetail, metadata: meta}, nil

	case !res.Mentioned && len(ranked) > 0 && !res.WantsScript:
		top := ranked[0]
		meta["knowledge_only"] = true
		meta["knowledge_id"] = top.ID.String()
		if IsGenericAnswer(top.Answer) {
			meta["generic_answer_replaced"] = true
		}
		if category, ok := MatchIssueCategory(message); ok {
			meta["issue_category"] = category.Name
		}
		return &composed{reply: KnowledgeOnlyReply(top, message), path: PathKnowledgeOnly, metadata: meta}, nil
	}

	return s.askModel(ctx, message, history, ranked, res, meta)
}

func (s *ChatService) askModel(
	ctx context.Context,
	message string,
	history []*models.ConversationTurn,
	ranked []*models.KnowledgeEntry,
	res ScriptResolution,
	meta map[string]any,
) (*composed, error) {
	feedback, err := s.feedback.RecentNegative(ctx, s.opts.FeedbackLimit)
	if err != nil {
		s.logger.Warn("Failed to load feedback hints", zap.Error(err))
		feedback = nil
	}

	scriptAsk := res.Explicit || IsTestCaseRequest(message)
	prompt := BuildSystemPrompt(PromptInput{
		Knowledge:       ranked,
		Feedback:        feedback,
		ScriptRequested: scriptAsk,
		ScriptKeys:      s.catalog.Keys(),
	})

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, ChatMessage{Role: string(turn.Role), Content: turn.Message})
	}
	messages = append(messages, ChatMessage{Role: string(models.RoleUser), Content: message})

	reply, err := s.completer.Complete(ctx, CompletionRequest{SystemPrompt: prompt, Messages: messages})
	if err != nil {
		return nil, err
	}

	meta["model_call"] = true
	meta["feedback_hints"] = len(feedback)
	if scriptAsk {
		meta["script_request_detected"] = true
	}
	return &composed{reply: strings.TrimSpace(reply), path: PathModel, metadata: meta}, nil
}

func (s *ChatService) appendTurn(ctx context.Context, sessionID string, role models.Role, message string, metadata map[string]any) {
	now := s.now().UTC()
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["timestamp"] = now.Format(time.RFC3339Nano)

	turn := &models.ConversationTurn{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Message:   sanitizeUTF8(message),
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := s.convLog.Append(ctx, turn); err != nil {
		s.logger.Error("Failed to append conversation turn",
			zap.String("session_id", sessionID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}

func (s *ChatService) clearPending(ctx context.Context, sessionID, pending string) {
	if pending == "" {
		return
	}
	if err := s.state.ClearPendingScript(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear pending script offer", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// carriedCodes is the earlier text whose scenario codes are searched with the message.
// Only a code-less script request or confirmation carries codes over: the pending
// offer when there is one, else the history.
func carriedCodes(message, historyText, pending string) string {
	if ContainsScenarioCode(message) {
		return ""
	}
	if !IsScriptRequest(message) && !IsAffirmative(message) {
		return ""
	}
	if pending != "" {
		return pending
	}
	return historyText
}

func historyTranscript(history []*models.ConversationTurn) string {
	parts := make([]string, 0, len(history))
	for _, turn := range history {
		parts = append(parts, turn.Message)
	}
	return strings.Join(parts, "\n")
}
