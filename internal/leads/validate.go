package leads

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/onedigit/site-engine/internal/models"
)

// ErrValidation is wrapped by every *ValidationError
var ErrValidation = errors.New("validation failed")

const (
	minNameLength    = 2
	minMessageLength = 10
)

// FieldError describes a single rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FieldMap returns the field errors keyed by field name
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Message
	}
	return m
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.fields = append(v.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func (v *validator) respondent(r models.Respondent, requireRole bool) {
	if utf8.RuneCountInString(strings.TrimSpace(r.Name)) < minNameLength {
		v.add("name", "must be at least %d characters", minNameLength)
	}
	if !validEmail(r.Email) {
		v.add("email", "must be a valid email address")
	}
	if strings.TrimSpace(r.Company) == "" {
		v.add("company", "is required")
	}
	if requireRole && strings.TrimSpace(r.Role) == "" {
		v.add("role", "is required")
	}
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// QuestionLookup resolves question definitions for answer range checks
type QuestionLookup interface {
	Question(id string) (models.Question, bool)
}

// ValidateAssessment checks an assessment submission before scoring
func ValidateAssessment(req *models.AssessmentRequest, questions QuestionLookup) error {
	var v validator
	v.respondent(req.Respondent(), true)

	if !req.Consent {
		v.add("consent", "must be accepted")
	}

	if req.Answers == nil {
		v.add("answers", "is required")
	} else if questions != nil {
		ids := make([]string, 0, len(req.Answers))
		for id := range req.Answers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			value := req.Answers[id]
			q, ok := questions.Question(id)
			if !ok {
				continue
			}
			if lo, hi := q.MinValue(), q.MaxValue(); value < lo || value > hi {
				v.add("answers."+id, "must be between %d and %d", lo, hi)
			}
		}
	}

	return v.err()
}

// ValidateContact checks a contact form submission
func ValidateContact(req *models.ContactRequest) error {
	var v validator
	v.respondent(req.Respondent(), false)

	if utf8.RuneCountInString(strings.TrimSpace(req.Message)) < minMessageLength {
		v.add("message", "must be at least %d characters", minMessageLength)
	}
	if !req.Consent {
		v.add("consent", "must be accepted")
	}

	return v.err()
}
