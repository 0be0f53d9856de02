package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/onedigit/site-engine/internal/insights"
	"github.com/onedigit/site-engine/internal/models"
)

// Client is a Go SDK for the site-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new site-engine client. apiKey is only needed for
// admin endpoints and may be empty.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error returned by the API
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// IsValidation reports whether err is a 400 validation_error
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "validation_error"
}

// IsNotFound reports whether err is a 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// InsightFilter narrows ListInsights
type InsightFilter struct {
	Category string
	Tags     []string
	Query    string
}

// LeadListOptions contains options for listing leads
type LeadListOptions struct {
	Kind   string
	Limit  int
	Offset int
}

// ListPillars returns the assessment catalog
func (c *Client) ListPillars(ctx context.Context) ([]models.Pillar, error) {
	var data struct {
		Pillars []models.Pillar `json:"pillars"`
	}
	if err := c.get(ctx, "/api/v1/assessment/pillars", &data); err != nil {
		return nil, err
	}
	return data.Pillars, nil
}

// SubmitAssessment submits answers and returns the scored result
func (c *Client) SubmitAssessment(ctx context.Context, req models.AssessmentRequest) (*models.AssessmentResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/v1/assessments", req)
	if err != nil {
		return nil, err
	}

	// The result is returned without the envelope
	var result models.AssessmentResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// SubmitContact submits the contact form
func (c *Client) SubmitContact(ctx context.Context, req models.ContactRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/v1/contact", req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil)
}

// ListInsights returns published article metadata, newest first
func (c *Client) ListInsights(ctx context.Context, filter InsightFilter) ([]*models.Article, error) {
	params := url.Values{}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if len(filter.Tags) > 0 {
		params.Set("tags", strings.Join(filter.Tags, ","))
	}
	if filter.Query != "" {
		params.Set("q", filter.Query)
	}

	path := "/api/v1/insights"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var data struct {
		Articles []*models.Article `json:"articles"`
	}
	if err := c.get(ctx, path, &data); err != nil {
		return nil, err
	}
	return data.Articles, nil
}

// GetInsight returns a published article with its CTA and structured data
func (c *Client) GetInsight(ctx context.Context, slug string) (*insights.ArticleView, error) {
	var view insights.ArticleView
	if err := c.get(ctx, "/api/v1/insights/"+url.PathEscape(slug), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListLeads returns captured leads. Requires an API key with leads:read.
func (c *Client) ListLeads(ctx context.Context, opts LeadListOptions) ([]*models.Lead, error) {
	params := url.Values{}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/admin/leads"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var data struct {
		Leads []*models.Lead `json:"leads"`
	}
	if err := c.get(ctx, path, &data); err != nil {
		return nil, err
	}
	return data.Leads, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.doRequest(ctx, method, path, bytes.NewReader(body))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decodeEnvelope(body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success {
		if env.Error != nil {
			return env.Error
		}
		return fmt.Errorf("API error: unsuccessful response")
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env envelope
		if json.Unmarshal(respBody, &env) == nil && env.Error != nil {
			env.Error.StatusCode = resp.StatusCode
			return nil, env.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: string(respBody)}
	}

	return respBody, nil
}
