package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "assistant-api", cfg.ServiceName)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, 100, cfg.RateLimitPerHour)
	assert.Equal(t, 500, cfg.RateLimitPerDay)
	assert.Equal(t, 5, cfg.ViolationThreshold)
	assert.Equal(t, 24*time.Hour, cfg.BanDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.RunPollInterval)
	assert.Equal(t, 60*time.Second, cfg.RunTimeout)
	assert.Equal(t, 2000, cfg.ChatMaxMessageLength)
	assert.Equal(t, 20, cfg.ChatHistoryWindow)
	assert.Equal(t, 15, cfg.ChatFAQLimit)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, ":8190", cfg.Addr())
	assert.False(t, cfg.StatefulAssistant())
}

func TestLoad_StatefulWhenAssistantConfigured(t *testing.T) {
	t.Setenv("OPENAI_ASSISTANT_ID", "asst_123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.StatefulAssistant())
}

func TestLoad_AuthRequiresKeyMaterial(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "secret")
	_, err = Load()
	require.NoError(t, err)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_PER_MINUTE")
}
