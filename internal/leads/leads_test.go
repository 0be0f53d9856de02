package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/notify"
	"github.com/onedigit/site-engine/internal/questionbank"
	"github.com/onedigit/site-engine/internal/scoring"
	"github.com/onedigit/site-engine/internal/storage"
)

type scorerSpy struct {
	mu     sync.Mutex
	calls  int
	engine *scoring.Engine
}

func (s *scorerSpy) Calculate(answers models.AnswerSet) *models.AssessmentResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.engine.Calculate(answers)
}

type dispatchSpy struct {
	mu   sync.Mutex
	sent []*notify.Notification
}

func (d *dispatchSpy) Dispatch(n *notify.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

type failingStore struct{}

func (failingStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	return errors.New("database unavailable")
}

func (failingStore) ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	return nil, errors.New("database unavailable")
}

// stallingStore blocks every write until its context ends
type stallingStore struct{}

func (stallingStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stallingStore) ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	return []*models.Lead{}, nil
}

func newTestService(t *testing.T, store Store, opts ...Option) (*Service, *scorerSpy, *dispatchSpy) {
	t.Helper()
	bank, err := questionbank.Default()
	require.NoError(t, err)

	scorer := &scorerSpy{engine: scoring.NewEngine(bank.Pillars())}
	dispatcher := &dispatchSpy{}
	return NewService(scorer, bank, store, dispatcher, opts...), scorer, dispatcher
}

func validAssessment() *models.AssessmentRequest {
	return &models.AssessmentRequest{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Role:    "CTO",
		Consent: true,
		Answers: models.AnswerSet{"l1": 4, "l2": 3},
	}
}

func TestValidateAssessment(t *testing.T) {
	bank, err := questionbank.Default()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *models.AssessmentRequest)
		field  string
	}{
		{"short name", func(r *models.AssessmentRequest) { r.Name = " A " }, "name"},
		{"bad email", func(r *models.AssessmentRequest) { r.Email = "not-an-email" }, "email"},
		{"display name email", func(r *models.AssessmentRequest) { r.Email = "Ada <ada@example.com>" }, "email"},
		{"missing company", func(r *models.AssessmentRequest) { r.Company = "  " }, "company"},
		{"missing role", func(r *models.AssessmentRequest) { r.Role = "" }, "role"},
		{"no consent", func(r *models.AssessmentRequest) { r.Consent = false }, "consent"},
		{"missing answers", func(r *models.AssessmentRequest) { r.Answers = nil }, "answers"},
		{"answer too high", func(r *models.AssessmentRequest) { r.Answers["l1"] = 5 }, "answers.l1"},
		{"answer too low", func(r *models.AssessmentRequest) { r.Answers["l2"] = 0 }, "answers.l2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAssessment()
			tt.mutate(req)

			err := ValidateAssessment(req, bank)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.FieldMap(), tt.field)
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateAssessment(validAssessment(), bank))
	})

	t.Run("empty answers and unknown ids", func(t *testing.T) {
		req := validAssessment()
		req.Answers = models.AnswerSet{"zz": 99}
		assert.NoError(t, ValidateAssessment(req, bank))
	})
}

func TestValidateContact(t *testing.T) {
	req := &models.ContactRequest{
		Name:    "Bob",
		Email:   "bob@example.com",
		Company: "Initech",
		Message: "Let's talk about your platform.",
		Consent: true,
	}
	assert.NoError(t, ValidateContact(req))

	req.Message = "too short"
	req.Consent = false
	err := ValidateContact(req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.FieldMap(), "message")
	assert.Contains(t, verr.FieldMap(), "consent")
	assert.Contains(t, err.Error(), "message: must be at least 10 characters")
}

func TestSubmitAssessment(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc, scorer, dispatcher := newTestService(t, repo)

	req := validAssessment()
	req.Name = "  Ada Lovelace  "

	result, err := svc.SubmitAssessment(context.Background(), req, "203.0.113.7")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, scorer.calls)

	leads, err := repo.ListLeads(context.Background(), models.LeadFilters{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, models.LeadAssessment, leads[0].Kind)
	assert.Equal(t, "Ada Lovelace", leads[0].Respondent.Name)
	assert.Equal(t, "203.0.113.7", leads[0].RemoteAddr)
	assert.Equal(t, result.OverallPercentage, leads[0].Result.OverallPercentage)

	require.Len(t, dispatcher.sent, 1)
	assert.Contains(t, dispatcher.sent[0].Subject, "AI Readiness Assessment: Ada Lovelace from Analytical Engines")
}

func TestSubmitAssessmentInvalidSkipsScorer(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc, scorer, dispatcher := newTestService(t, repo)

	for _, mutate := range []func(r *models.AssessmentRequest){
		func(r *models.AssessmentRequest) { r.Role = "" },
		func(r *models.AssessmentRequest) { r.Consent = false },
		func(r *models.AssessmentRequest) { r.Answers = nil },
	} {
		req := validAssessment()
		mutate(req)

		result, err := svc.SubmitAssessment(context.Background(), req, "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, result)
	}

	assert.Equal(t, 0, scorer.calls)
	assert.Empty(t, dispatcher.sent)

	leads, err := repo.ListLeads(context.Background(), models.LeadFilters{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSubmitAssessmentStoreFailure(t *testing.T) {
	svc, _, dispatcher := newTestService(t, failingStore{})

	result, err := svc.SubmitAssessment(context.Background(), validAssessment(), "")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Len(t, dispatcher.sent, 1)
}

func TestSubmitAssessmentStalledStore(t *testing.T) {
	svc, _, dispatcher := newTestService(t, stallingStore{}, WithStoreTimeout(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	result, err := svc.SubmitAssessment(ctx, validAssessment(), "")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Less(t, elapsed, 2*time.Second)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Len(t, dispatcher.sent, 1)
}

func TestWithStoreTimeoutIgnoresNonPositive(t *testing.T) {
	svc, _, _ := newTestService(t, nil, WithStoreTimeout(0))
	assert.Equal(t, DefaultStoreTimeout, svc.storeTimeout)
}

func TestSubmitContact(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc, scorer, dispatcher := newTestService(t, repo)

	err := svc.SubmitContact(context.Background(), &models.ContactRequest{
		Name:    "Bob",
		Email:   "bob@example.com",
		Company: "Initech",
		Message: "  We need help with a data platform.  ",
		Consent: true,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, scorer.calls)

	leads, err := svc.ListLeads(context.Background(), models.LeadFilters{Kind: models.LeadContact})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "We need help with a data platform.", leads[0].Message)

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "New Contact: Bob from Initech", dispatcher.sent[0].Subject)
}

func TestListLeadsWithoutStore(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	leads, err := svc.ListLeads(context.Background(), models.LeadFilters{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}
