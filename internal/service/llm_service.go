package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scm-chat/internal/models"
	"scm-chat/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("not configured")
	ErrRateLimited   = errors.New("model rate limit exceeded")
	ErrQuotaExceeded = errors.New("model quota exceeded")
)

// GatewayError is a non-2xx model response other than 429 and 402.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("AI gateway error: %d", e.Status)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a system prompt plus the ordered conversation.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []ChatMessage
}

// Completer is a black-box text completion service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// GatewayClient talks to an OpenAI-compatible chat completions endpoint.
type GatewayClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGatewayClient(cfg *config.AIConfig, httpClient *http.Client, logger *zap.Logger) *GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GatewayClient{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type gatewayRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type gatewayResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one non-streaming request. There are no retries.
func (c *GatewayClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("AI_GATEWAY_API_KEY is %w", ErrNotConfigured)
	}

	messages := make([]ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	messages = append(messages, req.Messages...)

	jsonData, err := json.Marshal(gatewayRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.GatewayURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call AI gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("AI gateway error",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
		)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", ErrRateLimited
		case http.StatusPaymentRequired:
			return "", ErrQuotaExceeded
		default:
			return "", &GatewayError{Status: resp.StatusCode, Body: string(bodyBytes)}
		}
	}

	var gwResp gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gwResp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI gateway")
	}

	c.logger.Info("AI response generated",
		zap.String("model", c.config.Model),
		zap.Int("messages", len(messages)),
	)
	return gwResp.Choices[0].Message.Content, nil
}

// GigaChatClient serves completions through GigaChat.
type GigaChatClient struct {
	client *gigago.Client
	logger *zap.Logger
}

func NewGigaChatClient(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GIGACHAT_API_KEY is %w", ErrNotConfigured)
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	return &GigaChatClient{client: client, logger: logger}, nil
}

// Complete folds the conversation into a single user message; the system
// prompt goes into the model's system instruction.
func (c *GigaChatClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := c.client.GenerativeModel("GigaChat")
	model.SystemInstruction = req.SystemPrompt
	model.Temperature = 0.3

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: foldConversation(req.Messages)},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	c.logger.Info("GigaChat response generated", zap.Int("messages", len(req.Messages)))
	return resp.Choices[0].Message.Content, nil
}

func (c *GigaChatClient) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

func foldConversation(messages []ChatMessage) string {
	if len(messages) == 1 {
		return messages[0].Content
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range messages {
		speaker := "User"
		if m.Role == string(models.RoleAssistant) {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	b.WriteString("\nReply to the last user message.")
	return b.String()
}
