package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onedigit/site-engine/internal/api"
	"github.com/onedigit/site-engine/internal/cleanup"
	"github.com/onedigit/site-engine/internal/config"
	"github.com/onedigit/site-engine/internal/insights"
	"github.com/onedigit/site-engine/internal/leads"
	"github.com/onedigit/site-engine/internal/notify"
	"github.com/onedigit/site-engine/internal/questionbank"
	"github.com/onedigit/site-engine/internal/ratelimit"
	"github.com/onedigit/site-engine/internal/scoring"
	"github.com/onedigit/site-engine/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting site-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Load the assessment catalog; an invalid catalog is fatal
	bank, err := questionbank.Load(cfg.Assessment.QuestionBankPath)
	if err != nil {
		slog.Error("failed to load question bank", "path", cfg.Assessment.QuestionBankPath, "error", err)
		os.Exit(1)
	}
	slog.Info("question bank loaded", "pillars", len(bank.Pillars()), "questions", bank.QuestionCount())

	engine := scoring.NewEngine(bank.Pillars())

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := openRepository(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	insightService := insights.NewService(repo, cfg.Insights.SiteURL)
	if cfg.Insights.SeedPath != "" {
		if _, err := insightService.SeedFile(initCtx, cfg.Insights.SeedPath); err != nil {
			slog.Error("failed to seed insights", "path", cfg.Insights.SeedPath, "error", err)
			os.Exit(1)
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(initCtx).Err(); err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		slog.Info("redis connected", "address", cfg.Redis.Address)
	}

	// Rate limiter
	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go local.Run(ctx, cfg.RateLimit.Window)
		limiter = local
	}

	// Notification channels
	registry := notify.NewRegistry()
	if cfg.Mail.Enabled() {
		registry.Register(notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			To:       cfg.Mail.To,
		}))
	} else {
		slog.Warn("SMTP not configured, notifications will be logged only")
		registry.Register(notify.NewLogNotifier(cfg.Mail.To))
	}
	if redisClient != nil {
		registry.Register(notify.NewRedisNotifier(redisClient, notify.DefaultStream))
	}
	hub := notify.NewHub(32)
	registry.Register(hub)
	dispatcher := notify.NewDispatcher(registry, notify.DefaultSendTimeout)
	slog.Info("notifiers registered", "notifiers", registry.List())

	leadService := leads.NewService(engine, bank, repo, dispatcher)

	// Start retention worker
	cleaner := cleanup.NewCleaner(repo, cfg.Retention.LeadRetention, cfg.Retention.Interval)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Bank:      bank,
		Bands:     engine.Bands(),
		Leads:     leadService,
		Insights:  insightService,
		Repo:      repo,
		Notifiers: registry,
		Hub:       hub,
		Limiter:   limiter,
		AdminKey:  cfg.Admin.APIKey,
	})
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	// Hijacked websocket streams are not tracked by Shutdown
	httpServer.RegisterOnShutdown(hub.Close)

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Let in-flight notifications finish
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("notifications still pending at shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("site-engine stopped")
}

// openRepository connects to PostgreSQL and applies migrations, or falls
// back to in-memory storage when no DSN is configured
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.DSN == "" {
		slog.Warn("DATABASE_DSN not set, using in-memory storage")
		return storage.NewMemoryRepository(), nil
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:      cfg.DSN,
		MaxConns: int32(cfg.MaxConns),
		MinConns: int32(cfg.MinConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	slog.Info("database connected successfully")

	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := repo.MigrateDir(ctx, cfg.MigrationsDir); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}
