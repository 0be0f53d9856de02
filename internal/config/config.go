package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for site-engine
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Assessment AssessmentConfig
	Insights   InsightsConfig
	Mail       MailConfig
	RateLimit  RateLimitConfig
	Retention  RetentionConfig
	Admin      AdminConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	// TrustedProxies lists peer addresses or CIDRs whose forwarding
	// headers are honoured. Empty means the peer address is always used.
	TrustedProxies []string
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (c ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level slog.Level
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN selects the
// in-memory repository.
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxConns      int
	MinConns      int
}

// RedisConfig holds Redis configuration. An empty Address disables Redis.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// AssessmentConfig points at an optional catalog override
type AssessmentConfig struct {
	QuestionBankPath string
}

// InsightsConfig holds insight article settings
type InsightsConfig struct {
	SeedPath string
	SiteURL  string
}

// MailConfig holds SMTP notification settings
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

// Enabled reports whether SMTP delivery is configured
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// RateLimitConfig limits public form submissions per client
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RetentionConfig controls lead purging
type RetentionConfig struct {
	LeadRetention time.Duration
	Interval      time.Duration
}

// AdminConfig holds the bootstrap admin key
type AdminConfig struct {
	APIKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Log: LogConfig{
			Level: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "./migrations"),
			MaxConns:      getEnvAsInt("DATABASE_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DATABASE_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Assessment: AssessmentConfig{
			QuestionBankPath: getEnv("QUESTION_BANK_PATH", ""),
		},
		Insights: InsightsConfig{
			SeedPath: getEnv("INSIGHTS_SEED_PATH", ""),
			SiteURL:  strings.TrimSuffix(getEnv("SITE_URL", "https://1digit.io"), "/"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Retention: RetentionConfig{
			LeadRetention: getEnvAsDuration("LEAD_RETENTION", 365*24*time.Hour),
			Interval:      getEnvAsDuration("RETENTION_INTERVAL", time.Hour),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
	}

	cfg.Mail.To = getEnv("NOTIFY_TO", cfg.Mail.User)
	if cfg.Mail.To == "" {
		cfg.Mail.To = "team@1digit.co.uk"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}

	if c.Mail.Enabled() && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("invalid smtp port: %d", c.Mail.Port)
	}

	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("rate limit requests must be positive: %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive: %s", c.RateLimit.Window)
	}

	if c.Retention.LeadRetention <= 0 {
		return fmt.Errorf("lead retention must be positive: %s", c.Retention.LeadRetention)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value, exists := os.LookupEnv(key); exists {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
