package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scm-chat/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gatewayConfig(url string) *config.AIConfig {
	return &config.AIConfig{
		Provider:   config.ProviderGateway,
		GatewayURL: url,
		APIKey:     "test-key",
		Model:      "google/gemini-2.5-flash",
	}
}

func TestGatewayClient_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req gatewayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "google/gemini-2.5-flash", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, ChatMessage{Role: "system", Content: "be helpful"}, req.Messages[0])
		assert.Equal(t, ChatMessage{Role: "user", Content: "What is an ASN?"}, req.Messages[1])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"An Advance Shipping Notice."}}]}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(gatewayConfig(srv.URL), srv.Client(), zap.NewNop())
	reply, err := client.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "be helpful",
		Messages:     []ChatMessage{{Role: "user", Content: "What is an ASN?"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "An Advance Shipping Notice.", reply)
}

func TestGatewayClient_Complete_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrQuotaExceeded},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		client := NewGatewayClient(gatewayConfig(srv.URL), srv.Client(), zap.NewNop())
		_, err := client.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
		assert.ErrorIs(t, err, tc.want)
		srv.Close()
	}
}

func TestGatewayClient_Complete_OtherStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := NewGatewayClient(gatewayConfig(srv.URL), srv.Client(), zap.NewNop())
	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadGateway, gwErr.Status)
	assert.Equal(t, "upstream unavailable", gwErr.Body)
	assert.EqualError(t, err, "AI gateway error: 502")
}

func TestGatewayClient_Complete_MissingKey(t *testing.T) {
	cfg := gatewayConfig("http://127.0.0.1:1")
	cfg.APIKey = ""

	client := NewGatewayClient(cfg, nil, zap.NewNop())
	_, err := client.Complete(context.Background(), CompletionRequest{})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.EqualError(t, err, "AI_GATEWAY_API_KEY is not configured")
}

func TestGatewayClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(gatewayConfig(srv.URL), srv.Client(), zap.NewNop())
	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	assert.Error(t, err)
}

func TestFoldConversation(t *testing.T) {
	assert.Equal(t, "only question", foldConversation([]ChatMessage{{Role: "user", Content: "only question"}}))

	folded := foldConversation([]ChatMessage{
		{Role: "user", Content: "What is IB06?"},
		{Role: "assistant", Content: "IB06 covers PO receiving"},
		{Role: "user", Content: "and IB07?"},
	})
	assert.Contains(t, folded, "User: What is IB06?\nAssistant: IB06 covers PO receiving\nUser: and IB07?\n")
	assert.Contains(t, folded, "Reply to the last user message.")
}
