// Package client talks to the Stable Diffusion REST backend and hands every
// payload through the normalizer before returning it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 5 * time.Minute

	generatePath = "/api/v1/generate"
	healthPath   = "/api/v1/health"
	readyPath    = "/api/v1/ready"
	imagesPath   = "/api/v1/images"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, including its timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds each backend call. It applies to a copy of the HTTP
// client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a client for the backend at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "sdfront",
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}
	return c
}

// BaseURL returns the backend origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL returns the backend URL for an image filename.
func (c *Client) ImageURL(filename string) string {
	return normalize.BuildImageURL(c.baseURL, filename)
}

// GenerateImage validates req, submits it and returns the normalized result.
// Image URLs in the result point at baseURL.
func (c *Client) GenerateImage(ctx context.Context, req models.GenerationRequest, baseURL string) (models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return models.GenerationResult{}, err
	}

	var raw models.RawGenerationResult
	if err := c.doJSON(ctx, http.MethodPost, generatePath, req.WithDefaults(), &raw); err != nil {
		return models.GenerationResult{}, err
	}
	return normalize.NormalizeGenerationResult(raw, c.urlBase(baseURL)), nil
}

// Health returns the backend health report.
func (c *Client) Health(ctx context.Context) (models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, healthPath, nil, &status); err != nil {
		return models.HealthStatus{}, err
	}
	return status, nil
}

// Ready returns the backend readiness report.
func (c *Client) Ready(ctx context.Context) (models.ReadinessStatus, error) {
	var status models.ReadinessStatus
	if err := c.doJSON(ctx, http.MethodGet, readyPath, nil, &status); err != nil {
		return models.ReadinessStatus{}, err
	}
	return status, nil
}

// ListImages returns the gallery, newest first. Image URLs point at baseURL,
// or at the backend when baseURL is empty.
func (c *Client) ListImages(ctx context.Context, baseURL string) ([]models.ImageListEntry, error) {
	var raw models.ImageListResponse
	if err := c.doJSON(ctx, http.MethodGet, imagesPath, nil, &raw); err != nil {
		return nil, err
	}
	return normalize.NormalizeImageList(raw.Images, c.urlBase(baseURL)), nil
}

// FetchImage downloads the raw bytes of an image along with its content type.
func (c *Client) FetchImage(ctx context.Context, filename string) ([]byte, string, error) {
	if err := normalize.ValidateFilename(filename); err != nil {
		return nil, "", fmt.Errorf("%w: %q", err, filename)
	}

	resp, err := c.do(ctx, http.MethodGet, normalize.ImagePathPrefix+filename, nil, "image/*")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", newAPIError(resp.StatusCode, data)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (c *Client) urlBase(baseURL string) string {
	if baseURL == "" {
		return c.baseURL
	}
	return baseURL
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(jsonBody)
	}

	resp, err := c.do(ctx, method, path, payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, data)
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("detail", apiErr.Detail).
			Msg("Backend returned an error")
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return newDecodeError(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("Backend request failed")
		return nil, newNetworkError(err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request completed")
	return resp, nil
}
