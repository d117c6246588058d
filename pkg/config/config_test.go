package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_GATEWAY_API_KEY", "")
	t.Setenv("FEEDBACK_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ProviderGateway, cfg.AI.Provider)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.AI.Model)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, 10, cfg.Knowledge.FeedbackLimit)
	assert.Equal(t, 10, cfg.Knowledge.IssueLimit)
	assert.Equal(t, time.Hour, cfg.Redis.StateTTL)
}

func TestLoad_FeedbackLimitIsCapped(t *testing.T) {
	t.Setenv("FEEDBACK_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Knowledge.FeedbackLimit)

	t.Setenv("FEEDBACK_LIMIT", "3")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Knowledge.FeedbackLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AI_PROVIDER", ProviderGigaChat)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, ProviderGigaChat, cfg.AI.Provider)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}
