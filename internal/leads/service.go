package leads

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/notify"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// DefaultStoreTimeout bounds how long a submission waits on the store
	DefaultStoreTimeout = 5 * time.Second
)

// Scorer computes an assessment result from raw answers
type Scorer interface {
	Calculate(answers models.AnswerSet) *models.AssessmentResult
}

// Store persists captured leads
type Store interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error)
}

// Dispatcher delivers lead notifications in the background
type Dispatcher interface {
	Dispatch(n *notify.Notification)
}

// Service validates form submissions, scores assessments and records leads
type Service struct {
	scorer     Scorer
	questions  QuestionLookup
	store      Store
	dispatcher Dispatcher
	now        func() time.Time

	storeTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithStoreTimeout sets the deadline for persisting a lead
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewService creates a lead service. store and dispatcher may be nil.
func NewService(scorer Scorer, questions QuestionLookup, store Store, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		scorer:       scorer,
		questions:    questions,
		store:        store,
		dispatcher:   dispatcher,
		now:          time.Now,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitAssessment validates and scores an assessment. Recording the lead
// never affects the returned result.
func (s *Service) SubmitAssessment(ctx context.Context, req *models.AssessmentRequest, remoteAddr string) (*models.AssessmentResult, error) {
	if err := ValidateAssessment(req, s.questions); err != nil {
		return nil, err
	}

	result := s.scorer.Calculate(req.Answers)

	lead := &models.Lead{
		ID:         uuid.New().String(),
		Kind:       models.LeadAssessment,
		Respondent: normalize(req.Respondent()),
		Answers:    req.Answers,
		Result:     result,
		Consent:    req.Consent,
		RemoteAddr: remoteAddr,
		CreatedAt:  s.now().UTC(),
	}
	s.record(ctx, lead, notify.RenderAssessment)

	slog.Info("assessment scored",
		"lead_id", lead.ID,
		"email", lead.Respondent.MaskedEmail(),
		"band", result.Band,
		"overall_percentage", result.OverallPercentage,
	)

	return result, nil
}

// SubmitContact validates and records a contact form submission
func (s *Service) SubmitContact(ctx context.Context, req *models.ContactRequest, remoteAddr string) error {
	if err := ValidateContact(req); err != nil {
		return err
	}

	lead := &models.Lead{
		ID:         uuid.New().String(),
		Kind:       models.LeadContact,
		Respondent: normalize(req.Respondent()),
		Message:    strings.TrimSpace(req.Message),
		Consent:    req.Consent,
		RemoteAddr: remoteAddr,
		CreatedAt:  s.now().UTC(),
	}
	s.record(ctx, lead, notify.RenderContact)

	slog.Info("contact received",
		"lead_id", lead.ID,
		"email", lead.Respondent.MaskedEmail(),
	)

	return nil
}

// ListLeads returns recorded leads newest first
func (s *Service) ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	if s.store == nil {
		return []*models.Lead{}, nil
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	}
	filters.Limit = min(filters.Limit, maxListLimit)
	filters.Offset = max(filters.Offset, 0)

	leads, err := s.store.ListLeads(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (s *Service) record(ctx context.Context, lead *models.Lead, render func(*models.Lead) (*notify.Notification, error)) {
	if s.store != nil {
		// Outlives a client disconnect, never the store timeout
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		err := s.store.CreateLead(storeCtx, lead)
		cancel()
		if err != nil {
			slog.Error("failed to persist lead", "lead_id", lead.ID, "kind", lead.Kind, "error", err)
		}
	}

	if s.dispatcher == nil {
		return
	}

	n, err := render(lead)
	if err != nil {
		slog.Error("failed to render notification", "lead_id", lead.ID, "error", err)
		return
	}
	s.dispatcher.Dispatch(n)
}

func normalize(r models.Respondent) models.Respondent {
	return models.Respondent{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Company: strings.TrimSpace(r.Company),
		Role:    strings.TrimSpace(r.Role),
	}
}
