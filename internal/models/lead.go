package models

import (
	"strings"
	"time"
)

// LeadKind identifies which form produced a lead
type LeadKind string

const (
	LeadAssessment LeadKind = "assessment"
	LeadContact    LeadKind = "contact"
)

// Respondent holds the identity fields shared by all lead forms
type Respondent struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Role    string `json:"role,omitempty"`
}

// MaskedEmail returns the email with the local part hidden for logging
func (r Respondent) MaskedEmail() string {
	at := strings.LastIndex(r.Email, "@")
	if at < 1 {
		return "***"
	}
	return r.Email[:1] + "***" + r.Email[at:]
}

// Lead is a captured form submission
type Lead struct {
	ID         string            `json:"id"`
	Kind       LeadKind          `json:"kind"`
	Respondent Respondent        `json:"respondent"`
	Message    string            `json:"message,omitempty"`
	Answers    AnswerSet         `json:"answers,omitempty"`
	Result     *AssessmentResult `json:"result,omitempty"`
	Consent    bool              `json:"consent"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AssessmentRequest is the body of an AI-readiness submission
type AssessmentRequest struct {
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Company string    `json:"company"`
	Role    string    `json:"role"`
	Consent bool      `json:"consent"`
	Answers AnswerSet `json:"answers"`
}

// Respondent returns the identity fields of the request
func (r AssessmentRequest) Respondent() Respondent {
	return Respondent{Name: r.Name, Email: r.Email, Company: r.Company, Role: r.Role}
}

// ContactRequest is the body of a contact form submission
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
	Consent bool   `json:"consent"`
}

// Respondent returns the identity fields of the request
func (r ContactRequest) Respondent() Respondent {
	return Respondent{Name: r.Name, Email: r.Email, Company: r.Company, Role: r.Role}
}

// LeadFilters narrows lead listings
type LeadFilters struct {
	Kind   LeadKind
	Limit  int
	Offset int
}
