package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scm-chat/internal/api/handlers"
	"scm-chat/internal/models"
	"scm-chat/internal/service"
	"scm-chat/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopChat struct{}

func (noopChat) Chat(_ context.Context, message, sessionID string) (*service.ChatResult, error) {
	return &service.ChatResult{Reply: "echo: " + message, SessionID: sessionID}, nil
}

func (noopChat) History(context.Context, string) ([]*models.ConversationTurn, error) {
	return nil, nil
}

type noopFeedback struct{}

func (noopFeedback) Submit(context.Context, string, string, string, *string) (*models.FeedbackRecord, error) {
	return &models.FeedbackRecord{}, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testApp() *fiber.App {
	logger := zap.NewNop()
	return SetupRouter(Handlers{
		Chat:     handlers.NewChatHandler(noopChat{}, logger),
		Feedback: handlers.NewFeedbackHandler(noopFeedback{}, logger),
		Script:   handlers.NewScriptHandler(service.DefaultScriptCatalog(), logger),
		Health:   handlers.NewHealthHandler(okPinger{}, logger),
	}, &config.ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second}, logger)
}

func TestRouter_Routes(t *testing.T) {
	app := testApp()

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{fiber.MethodGet, "/health", "", fiber.StatusOK},
		{fiber.MethodPost, "/api/v1/chat", `{"message":"hi","sessionId":"s-1"}`, fiber.StatusOK},
		{fiber.MethodGet, "/api/v1/chat/s-1/history", "", fiber.StatusOK},
		{fiber.MethodPost, "/api/v1/feedback", `{"feedbackType":"positive"}`, fiber.StatusCreated},
		{fiber.MethodGet, "/documents/scripts/IB01_RTC.robot", "", fiber.StatusOK},
		{fiber.MethodGet, "/api/v1/scripts/INV04.txt", "", fiber.StatusOK},
		{fiber.MethodGet, "/api/v1/scripts/NOPE.txt", "", fiber.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		if tc.body != "" {
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://app.example.com")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPost)

	resp, err := testApp().Test(req)
	require.NoError(t, err)

	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "x-client-info")
}
