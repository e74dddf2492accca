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

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.WidgetTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, "checkout-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("API_BASE_URL", "https://api.example.test")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CHECKOUT_WIDGET_TIMEOUT", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "https://api.example.test", cfg.APIBaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Duration(0), cfg.WidgetTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "failed to load config")
}

func TestValidate_NegativeWidgetTimeout(t *testing.T) {
	cfg := &Config{APIBaseURL: "http://x", HTTPPort: "1", WidgetTimeout: -time.Second}
	assert.Error(t, cfg.Validate())
}
