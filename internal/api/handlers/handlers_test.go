package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scm-chat/internal/dto"
	"scm-chat/internal/models"
	"scm-chat/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChat struct {
	result  *service.ChatResult
	err     error
	turns   []*models.ConversationTurn
	message string
}

func (s *stubChat) Chat(_ context.Context, message, sessionID string) (*service.ChatResult, error) {
	s.message = message
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubChat) History(_ context.Context, _ string) ([]*models.ConversationTurn, error) {
	return s.turns, s.err
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func chatApp(chat ChatResponder) *fiber.App {
	h := NewChatHandler(chat, zap.NewNop())
	app := fiber.New()
	app.Post("/api/v1/chat", h.Chat)
	app.Get("/api/v1/chat/:sessionId/history", h.History)
	return app
}

func TestChatHandler_Success(t *testing.T) {
	chat := &stubChat{result: &service.ChatResult{Reply: "IB06 covers PO receiving", SessionID: "s-1"}}

	resp, body := postJSON(t, chatApp(chat), "/api/v1/chat", `{"message":"What is IB06?","sessionId":"s-1"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "What is IB06?", chat.message)

	var out dto.ChatResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, dto.ChatResponse{Reply: "IB06 covers PO receiving", SessionID: "s-1"}, out)
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"rate limited", service.ErrRateLimited, fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."},
		{"quota", fmt.Errorf("wrapped: %w", service.ErrQuotaExceeded), fiber.StatusPaymentRequired, "Service quota exceeded. Please contact support."},
		{"gateway", &service.GatewayError{Status: 503}, fiber.StatusInternalServerError, "AI gateway error: 503"},
		{"not configured", fmt.Errorf("AI_GATEWAY_API_KEY is %w", service.ErrNotConfigured), fiber.StatusInternalServerError, "AI_GATEWAY_API_KEY is not configured"},
		{"empty message", service.ErrEmptyMessage, fiber.StatusInternalServerError, "message is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, chatApp(&stubChat{err: tc.err}), "/api/v1/chat", `{"message":"hi"}`)
			assert.Equal(t, tc.status, resp.StatusCode)

			var out dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tc.msg, out.Error)
		})
	}
}

func TestChatHandler_History(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	chat := &stubChat{turns: []*models.ConversationTurn{
		{ID: uuid.New(), SessionID: "s-1", Role: models.RoleUser, Message: "hi", CreatedAt: created},
		{ID: uuid.New(), SessionID: "s-1", Role: models.RoleAssistant, Message: "hello", CreatedAt: created.Add(time.Second)},
	}}

	resp, err := chatApp(chat).Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/chat/s-1/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "s-1", out.SessionID)
	require.Len(t, out.Turns, 2)
	assert.Equal(t, dto.TurnResponse{Role: "user", Message: "hi", CreatedAt: "2024-05-01T10:00:00Z"}, out.Turns[0])
	assert.Equal(t, "assistant", out.Turns[1].Role)
}

type stubFeedback struct {
	err error
}

func (s *stubFeedback) Submit(_ context.Context, sessionID, content, fbType string, comment *string) (*models.FeedbackRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.FeedbackRecord{ID: uuid.New(), SessionID: sessionID, MessageContent: content, FeedbackType: models.FeedbackType(fbType), CreatedAt: time.Now()}, nil
}

func TestFeedbackHandler(t *testing.T) {
	newApp := func(fb FeedbackSubmitter) *fiber.App {
		app := fiber.New()
		app.Post("/api/v1/feedback", NewFeedbackHandler(fb, zap.NewNop()).Submit)
		return app
	}

	resp, body := postJSON(t, newApp(&stubFeedback{}), "/api/v1/feedback",
		`{"sessionId":"s-1","messageContent":"reply","feedbackType":"negative","comment":"wrong"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.FeedbackResponse
	require.NoError(t, json.Unmarshal(body, &created))
	_, err := uuid.Parse(created.ID)
	assert.NoError(t, err)

	invalid := fmt.Errorf("%w: feedbackType must be positive or negative", service.ErrInvalidFeedback)
	resp, _ = postJSON(t, newApp(&stubFeedback{err: invalid}), "/api/v1/feedback", `{"feedbackType":"meh"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = postJSON(t, newApp(&stubFeedback{err: errors.New("db down")}), "/api/v1/feedback", `{"feedbackType":"positive"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Failed to submit feedback")
}

func TestScriptHandler_Download(t *testing.T) {
	app := fiber.New()
	h := NewScriptHandler(service.DefaultScriptCatalog(), zap.NewNop())
	app.Get("/documents/scripts/:file", h.Download)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/documents/scripts/IB02_WIT.robot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="IB02_WIT.robot"`)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "*** Settings ***"))

	for _, name := range []string{"IB02_WIT.txt", "IB06.robot", "OB07"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/documents/scripts/"+name, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, name)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{nil, fiber.StatusOK},
		{errors.New("refused"), fiber.StatusServiceUnavailable},
	} {
		app := fiber.New()
		app.Get("/health", NewHealthHandler(stubPinger{err: tc.err}, zap.NewNop()).Health)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode)
	}
}
