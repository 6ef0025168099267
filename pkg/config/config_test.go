package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.AuthLimit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, 3, cfg.RateLimit.PaymentLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.PaymentWindow)
	assert.Equal(t, 60, cfg.RateLimit.APILimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.APIWindow)
	assert.Equal(t, 3, cfg.RateLimit.ContactLimit)
	assert.Equal(t, time.Hour, cfg.RateLimit.ContactWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STRIPE_CURRENCY", "USD")
	t.Setenv("RATE_LIMIT_AUTH_WINDOW", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com, https://academy.example.com ,")
	t.Setenv("APP_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, []string{"https://shop.example.com", "https://academy.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
}
