package config

import (
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Empty(t, cfg.Database.DSN)
	assert.False(t, cfg.Mail.Enabled())
	assert.Equal(t, "team@1digit.co.uk", cfg.Mail.To)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 365*24*time.Hour, cfg.Retention.LeadRetention)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://1digit.io, https://www.1digit.io,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SITE_URL", "https://example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://1digit.io", "https://www.1digit.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, "bot@example.com", cfg.Mail.To)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "https://example.com", cfg.Insights.SiteURL)
}

func TestValidate(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid server port")

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "rate limit requests")

	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid trusted proxy")
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg := ServerConfig{TrustedProxies: []string{"10.1.2.3/8", "192.0.2.7", "2001:db8::/32"}}

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 3)

	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.7/32", prefixes[1].String())
	assert.True(t, prefixes[2].Contains(netip.MustParseAddr("2001:db8::1")))
}
