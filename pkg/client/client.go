// Package client is a typed Go client for the assessment HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/api"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	Status  int
	Title   string
	Detail  string
	TraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agiaef api %d: %s: %s", e.Status, e.Title, e.Detail)
}

// Client calls the assessment API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var problem api.ProblemDetail
		if err := json.NewDecoder(resp.Body).Decode(&problem); err != nil || problem.Title == "" {
			return &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		}
		return &APIError{
			Status:  resp.StatusCode,
			Title:   problem.Title,
			Detail:  problem.Detail,
			TraceID: problem.TraceID,
		}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Assess calls POST /api/v1/assessments.
func (c *Client) Assess(ctx context.Context, req api.AssessmentRequest) (*api.AssessmentResponse, error) {
	var out api.AssessmentResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/assessments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get calls GET /api/v1/assessments/{id}.
func (c *Client) Get(ctx context.Context, id string) (*api.AssessmentResponse, error) {
	var out api.AssessmentResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/assessments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Breakdown calls GET /api/v1/assessments/{id}/breakdown.
func (c *Client) Breakdown(ctx context.Context, id string) (*api.BreakdownResponse, error) {
	var out api.BreakdownResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/assessments/"+url.PathEscape(id)+"/breakdown", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Latest calls GET /api/v1/systems/{name}/latest.
func (c *Client) Latest(ctx context.Context, system string) (*api.AssessmentResponse, error) {
	var out api.AssessmentResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/systems/"+url.PathEscape(system)+"/latest", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Domains calls GET /api/v1/domains.
func (c *Client) Domains(ctx context.Context) ([]domain.Profile, error) {
	var out []domain.Profile
	err := c.do(ctx, http.MethodGet, "/api/v1/domains", nil, &out)
	return out, err
}

// History calls GET /api/v1/systems/{name}/assessments. limit <= 0 uses the
// server default.
func (c *Client) History(ctx context.Context, system string, limit int) ([]api.AssessmentSummary, error) {
	path := "/api/v1/systems/" + url.PathEscape(system) + "/assessments"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []api.AssessmentSummary
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Dimensions calls GET /api/v1/dimensions.
func (c *Client) Dimensions(ctx context.Context) ([]rubric.Dimension, error) {
	var out []rubric.Dimension
	err := c.do(ctx, http.MethodGet, "/api/v1/dimensions", nil, &out)
	return out, err
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Version calls GET /version.
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.do(ctx, http.MethodGet, "/version", nil, &out)
	return out, err
}
