package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/onedigit/site-engine/internal/config"
	"github.com/onedigit/site-engine/internal/insights"
	"github.com/onedigit/site-engine/internal/leads"
	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/notify"
	"github.com/onedigit/site-engine/internal/questionbank"
	"github.com/onedigit/site-engine/internal/ratelimit"
	"github.com/onedigit/site-engine/internal/storage"
)

// Dependencies are the services the API serves
type Dependencies struct {
	Bank      *questionbank.Bank
	Bands     []models.Band
	Leads     *leads.Service
	Insights  *insights.Service
	Repo      storage.Repository
	Notifiers *notify.Registry
	Hub       *notify.Hub
	Limiter   ratelimit.Limiter
	AdminKey  string
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	bank           *questionbank.Bank
	bands          []models.Band
	leads          *leads.Service
	insights       *insights.Service
	repo           storage.Repository
	notifiers      *notify.Registry
	hub            *notify.Hub
	limiter        ratelimit.Limiter
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	s := &Server{
		config:         cfg,
		bank:           deps.Bank,
		bands:          deps.Bands,
		leads:          deps.Leads,
		insights:       deps.Insights,
		repo:           deps.Repo,
		notifiers:      deps.Notifiers,
		hub:            deps.Hub,
		limiter:        deps.Limiter,
		authMiddleware: NewAuthMiddleware(deps.Repo, deps.AdminKey),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	trusted, err := s.config.TrustedProxyPrefixes()
	if err != nil {
		slog.Warn("ignoring trusted proxies", "error", err)
		trusted = nil
	}

	r.Use(middleware.RequestID)
	r.Use(ratelimit.RealIP(trusted))
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	limited := s.rateLimit()

	// Form endpoints kept at the paths the site already posts to
	r.With(limited, timeout).Post("/api/ai-readiness", s.handleSubmitAssessment)
	r.With(limited, timeout).Post("/api/contact", s.handleSubmitContact)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/assessment/pillars", s.handleListPillars)
			r.Get("/assessment/bands", s.handleListBands)
			r.With(limited).Post("/assessments", s.handleSubmitAssessment)
			r.With(limited).Post("/contact", s.handleSubmitContact)

			r.Route("/insights", func(r chi.Router) {
				r.Get("/", s.handleListInsights)
				r.Get("/pinned", s.handlePinnedInsight)
				r.Get("/featured", s.handleFeaturedInsights)
				r.Get("/facets", s.handleInsightFacets)
				r.Get("/{slug}", s.handleGetInsight)
			})
		})

		// Admin (protected by API key authentication)
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware.Authenticate)

			r.Route("/insights", func(r chi.Router) {
				r.Use(timeout)
				r.With(s.authMiddleware.RequirePermission(models.PermInsightsRead)).Get("/", s.handleAdminListInsights)
				r.With(s.authMiddleware.RequirePermission(models.PermInsightsWrite)).Post("/", s.handleCreateInsight)
				r.With(s.authMiddleware.RequirePermission(models.PermInsightsRead)).Get("/export", s.handleExportInsights)
				r.With(s.authMiddleware.RequirePermission(models.PermInsightsRead)).Get("/warnings", s.handleInsightWarnings)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.authMiddleware.RequirePermission(models.PermInsightsRead)).Get("/", s.handleAdminGetInsight)
					r.With(s.authMiddleware.RequirePermission(models.PermInsightsWrite)).Put("/", s.handleUpdateInsight)
					r.With(s.authMiddleware.RequirePermission(models.PermInsightsWrite)).Delete("/", s.handleDeleteInsight)
					r.With(s.authMiddleware.RequirePermission(models.PermInsightsWrite)).Post("/pin", s.handleTogglePin)
				})
			})

			r.Route("/leads", func(r chi.Router) {
				r.Use(s.authMiddleware.RequirePermission(models.PermLeadsRead))
				r.With(timeout).Get("/", s.handleListLeads)
				// Long-lived, so no request timeout
				r.Get("/stream", s.handleLeadStream)
			})
		})
	})

	s.router = r
}

func timeout(next http.Handler) http.Handler {
	return middleware.Timeout(60 * time.Second)(next)
}

// rateLimit limits public form submissions per client IP
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(s.limiter, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
	})
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
