// Package leadsapi posts captured leads to the lead-management backend.
package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
)

// LeadsPath is appended to the configured base URL.
const LeadsPath = "/api/leads"

// Client implements ports.LeadClient over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout bounds each request. Zero keeps the http.Client's own timeout.
// It applies to a copy of whichever client is configured, in any option order.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for baseURL (e.g. "https://api.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + LeadsPath,
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Endpoint returns the full URL leads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CreateLead makes exactly one POST. Any 2xx is success; the response body is ignored.
// Failures are returned as *domain.SubmissionError.
func (c *Client) CreateLead(ctx context.Context, lead domain.LeadPayload) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return &domain.SubmissionError{Err: fmt.Errorf("failed to encode lead: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &domain.SubmissionError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Lead request failed", "endpoint", c.endpoint, "err", err)
		return &domain.SubmissionError{Err: err}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Lead rejected", "endpoint", c.endpoint, "status", resp.StatusCode)
		return &domain.SubmissionError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	c.logger.Debug("Lead accepted", "endpoint", c.endpoint, "status", resp.StatusCode)
	return nil
}
