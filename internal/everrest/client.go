// Package everrest is the HTTP client for the external shop API: catalog
// queries, the server-side cart, and sign-in/sign-up.
package everrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// DefaultBaseURL is the public API origin.
const DefaultBaseURL = "https://api.everrest.educata.dev"

// shopPath prefixes catalog and cart endpoints. Auth endpoints sit at the root.
const shopPath = "/shop"

const serviceName = "shop API"

// Config holds client configuration.
type Config struct {
	BaseURL string

	// Transport is the outbound round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
	Timeout   time.Duration

	// RequestsPerSecond caps outbound requests. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int

	Logger *slog.Logger
}

// Client talks to the shop API. Safe for concurrent use.
// Implements adapter.Backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a client with the given configuration.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("base URL must be http(s): %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		baseURL: baseURL,
		logger:  logger,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c, nil
}

// BaseURL returns the API origin, used to absolutize relative image paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a 2xx body into out (if non-nil).
// Non-2xx answers become *model.APIError via parseErrorResponse.
func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.NewTransportError(serviceName, fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, token, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewTransportError(serviceName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewTransportError(serviceName, fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("shop API request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseErrorResponse(resp.StatusCode, resp.Header, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewTransportError(serviceName, fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// setHeaders sets headers for shop API requests.
// Bearer auth only when a token is supplied.
func (c *Client) setHeaders(req *http.Request, token string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// errorResponse is the API's error envelope. message is sometimes a list.
type errorResponse struct {
	Error      string          `json:"error"`
	Message    json.RawMessage `json:"message"`
	ErrorKeys  []string        `json:"errorKeys"`
	StatusCode int             `json:"statusCode"`
}

func (e errorResponse) text() string {
	if len(e.Message) > 0 {
		var s string
		if json.Unmarshal(e.Message, &s) == nil && s != "" {
			return s
		}
		var list []string
		if json.Unmarshal(e.Message, &list) == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	if e.Error != "" {
		return e.Error
	}
	return strings.Join(e.ErrorKeys, ", ")
}

// parseErrorResponse converts a non-2xx answer to an APIError.
func (c *Client) parseErrorResponse(statusCode int, header http.Header, body []byte) error {
	var apiErr errorResponse
	json.Unmarshal(body, &apiErr) // Best effort parse

	if statusCode == http.StatusTooManyRequests {
		return model.NewRateLimitError(serviceName, retryAfter(header))
	}
	return model.NewRemoteError(statusCode, apiErr.text())
}

// isStatus reports whether err carries one of the given remote statuses.
func isStatus(err error, statuses ...int) bool {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.RemoteStatus == s {
			return true
		}
	}
	return false
}

// Ensure Client implements adapter.Backend at compile time.
var _ adapter.Backend = (*Client)(nil)
