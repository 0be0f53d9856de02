package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/onedigit/site-engine/internal/leads"
	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/ratelimit"
)

// Assessment catalog and public form handlers

func (s *Server) handleListPillars(w http.ResponseWriter, r *http.Request) {
	pillars := s.bank.Pillars()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pillars":        pillars,
		"total":          len(pillars),
		"question_count": s.bank.QuestionCount(),
	})
}

func (s *Server) handleListBands(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bands": s.bands,
		"total": len(s.bands),
	})
}

// handleSubmitAssessment returns the scored result without the envelope
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.AssessmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.leads.SubmitAssessment(r.Context(), &req, ratelimit.ClientKey(r))
	if err != nil {
		s.respondSubmitError(w, err, "assessment")
		return
	}

	respondRaw(w, http.StatusOK, result)
}

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.leads.SubmitContact(r.Context(), &req, ratelimit.ClientKey(r)); err != nil {
		s.respondSubmitError(w, err, "contact")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) respondSubmitError(w http.ResponseWriter, err error, form string) {
	var verr *leads.ValidationError
	if errors.As(err, &verr) {
		respondValidationError(w, verr)
		return
	}

	slog.Error("failed to process submission", "form", form, "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to process submission")
}
