package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onedigit/site-engine/internal/insights"
	"github.com/onedigit/site-engine/internal/models"
)

// --- Public handlers ---

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ArticleFilter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
	}
	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			filter.Tags = append(filter.Tags, tag)
		}
	}

	articles, err := s.insights.List(r.Context(), filter)
	if err != nil {
		s.respondInsightError(w, err, "failed to list insights")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"total":    len(articles),
	})
}

func (s *Server) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	view, err := s.insights.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.respondInsightError(w, err, "failed to get insight")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePinnedInsight(w http.ResponseWriter, r *http.Request) {
	article, err := s.insights.Pinned(r.Context())
	if err != nil {
		s.respondInsightError(w, err, "failed to get pinned insight")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

func (s *Server) handleFeaturedInsights(w http.ResponseWriter, r *http.Request) {
	articles, err := s.insights.Featured(r.Context())
	if err != nil {
		s.respondInsightError(w, err, "failed to list featured insights")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"total":    len(articles),
	})
}

func (s *Server) handleInsightFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := s.insights.Facets(r.Context())
	if err != nil {
		s.respondInsightError(w, err, "failed to list facets")
		return
	}
	respondJSON(w, http.StatusOK, facets)
}

// --- Admin handlers (API key auth) ---

func (s *Server) handleAdminListInsights(w http.ResponseWriter, r *http.Request) {
	sort, err := insights.ParseSort(r.URL.Query().Get("sort"), r.URL.Query().Get("dir"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	articles, err := s.insights.AdminList(r.Context(), sort)
	if err != nil {
		s.respondInsightError(w, err, "failed to list articles")
		return
	}

	metas := make([]*models.ArticleMeta, len(articles))
	for i, a := range articles {
		metas[i] = a.Meta()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"articles": metas,
		"total":    len(metas),
	})
}

func (s *Server) handleAdminGetInsight(w http.ResponseWriter, r *http.Request) {
	article, err := s.insights.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondInsightError(w, err, "failed to get article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

func (s *Server) handleCreateInsight(w http.ResponseWriter, r *http.Request) {
	var article models.Article
	if !decodeJSON(w, r, &article) {
		return
	}

	created, err := s.insights.Create(r.Context(), &article)
	if err != nil {
		s.respondInsightError(w, err, "failed to create article")
		return
	}

	slog.Info("article created via api", "id", created.ID, "client", clientName(r))
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateInsight(w http.ResponseWriter, r *http.Request) {
	var article models.Article
	if !decodeJSON(w, r, &article) {
		return
	}

	updated, err := s.insights.Update(r.Context(), chi.URLParam(r, "id"), &article)
	if err != nil {
		s.respondInsightError(w, err, "failed to update article")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInsight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.insights.Delete(r.Context(), id); err != nil {
		s.respondInsightError(w, err, "failed to delete article")
		return
	}

	slog.Info("article deleted via api", "id", id, "client", clientName(r))
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "article deleted",
	})
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	article, err := s.insights.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondInsightError(w, err, "failed to pin article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// handleExportInsights returns a bare JSON array suitable for re-seeding
func (s *Server) handleExportInsights(w http.ResponseWriter, r *http.Request) {
	articles, err := s.insights.Export(r.Context())
	if err != nil {
		s.respondInsightError(w, err, "failed to export articles")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="articles.json"`)
	respondRaw(w, http.StatusOK, articles)
}

func (s *Server) handleInsightWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := s.insights.Warnings(r.Context())
	if err != nil {
		s.respondInsightError(w, err, "failed to list warnings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"warnings": warnings,
		"total":    len(warnings),
	})
}

func (s *Server) respondInsightError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, insights.ErrArticleNotFound):
		respondError(w, http.StatusNotFound, "not_found", "article not found")
	case errors.Is(err, insights.ErrSlugTaken):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, insights.ErrInvalidArticle):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		slog.Error(message, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", message)
	}
}

func clientName(r *http.Request) string {
	if client := ClientFromContext(r.Context()); client != nil {
		return client.Name
	}
	return ""
}
