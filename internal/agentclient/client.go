// Package agentclient is a Go client for the ecosystem hub and its status
// surface.
package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// Client talks to the hub over HTTP and opens relay streams.
type Client struct {
	hubURL          string
	orchestratorURL string
	httpClient      *http.Client
	maxElapsed      time.Duration
	newBackOff      func() backoff.BackOff
	log             *slog.Logger
}

// Options configure a Client.
type Options struct {
	HubURL          string
	OrchestratorURL string
	// MaxElapsed bounds registration retries. Zero means one minute.
	MaxElapsed time.Duration
	Logger     *slog.Logger
}

// New creates a client.
func New(opts Options) *Client {
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		hubURL:          strings.TrimSuffix(opts.HubURL, "/"),
		orchestratorURL: strings.TrimSuffix(opts.OrchestratorURL, "/"),
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		maxElapsed:      opts.MaxElapsed,
		newBackOff:      func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:             opts.Logger.With("component", "agentclient"),
	}
}

// RegisterResponse is the hub's registration acknowledgement.
type RegisterResponse struct {
	Success    bool   `json:"success"`
	Registered string `json:"registered"`
}

// APIError is a non-2xx answer from the hub.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hub returned %d: %s", e.StatusCode, e.Message)
}

// Register registers name with the hub. Unavailability (503 or a network
// error) is retried with exponential backoff; rejections are returned
// immediately and match domain.ErrRegistrationRejected.
func (c *Client) Register(ctx context.Context, name string) (RegisterResponse, error) {
	endpoint := c.hubURL + "/register/" + url.PathEscape(name)

	op := func() (RegisterResponse, error) {
		var out RegisterResponse
		err := c.do(ctx, http.MethodPost, endpoint, &out)
		var apiErr *APIError
		switch {
		case err == nil:
			return out, nil
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity:
			return out, backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrRegistrationRejected, apiErr.Message))
		case errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusServiceUnavailable:
			return out, backoff.Permanent(err)
		default:
			c.log.Debug("hub unavailable, retrying registration", "agent", name, "error", err)
			return out, err
		}
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	)
}

// Health is the hub health document.
type Health struct {
	Status        string  `json:"status"`
	Agents        int     `json:"agents"`
	Messages      uint64  `json:"messages"`
	Peers         int     `json:"peers"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health fetches the hub health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, c.hubURL+"/health", &h)
	return h, err
}

// Status fetches the ecosystem snapshot from the orchestrator surface.
func (c *Client) Status(ctx context.Context) (domain.StatusSnapshot, error) {
	var snap domain.StatusSnapshot
	if c.orchestratorURL == "" {
		return snap, errors.New("orchestrator url is not configured")
	}
	err := c.do(ctx, http.MethodGet, c.orchestratorURL+"/status", &snap)
	return snap, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(body)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
