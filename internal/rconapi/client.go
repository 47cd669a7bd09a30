// Package rconapi is a StatusSource backed by the Hell Let Loose community
// RCON web API.
package rconapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

const (
	// Endpoint names under /api/.
	CommandStatus    = "get_status"
	CommandGameState = "get_gamestate"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 1 << 20
)

// Envelope is the wrapper every CRCON API response is delivered in.
type Envelope struct {
	Result  json.RawMessage `json:"result"`
	Command string          `json:"command"`
	Failed  bool            `json:"failed"`
	Error   string          `json:"error"`
	Version string          `json:"version"`
}

// EnvelopeError is a response that arrived intact but reported failure,
// or carried no result.
type EnvelopeError struct {
	Command string
	Message string
	Version string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rconapi: %s failed", e.Command)
	}
	return fmt.Sprintf("rconapi: %s failed: %s", e.Command, e.Message)
}

// EnvelopeFailed marks the error as an application-level failure.
func (e *EnvelopeError) EnvelopeFailed() bool { return true }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Command    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rconapi: %s: http %d", e.Command, e.StatusCode)
	}
	return fmt.Sprintf("rconapi: %s: http %d: %s", e.Command, e.StatusCode, e.Message)
}

// Client talks to one CRCON instance. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key as a Bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the CRCON instance at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("rconapi: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rconapi: base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("rconapi: base url %q has no host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base: u,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured instance address.
func (c *Client) BaseURL() string { return c.base.String() }

// GetIdentity calls get_status.
func (c *Client) GetIdentity(ctx context.Context) (model.ServerIdentity, error) {
	var id model.ServerIdentity
	if err := c.call(ctx, CommandStatus, &id); err != nil {
		return model.ServerIdentity{}, err
	}
	return id, nil
}

// GetGameState calls get_gamestate.
func (c *Client) GetGameState(ctx context.Context) (model.GameState, error) {
	var gs model.GameState
	if err := c.call(ctx, CommandGameState, &gs); err != nil {
		return model.GameState{}, err
	}
	return gs, nil
}

func (c *Client) endpoint(command string) string {
	u := *c.base
	u.Path = u.Path + "/api/" + command
	return u.String()
}

// call performs GET /api/<command> and decodes the envelope result into dest.
func (c *Client) call(ctx context.Context, command string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(command), nil)
	if err != nil {
		return fmt.Errorf("rconapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rconapi: %s: %w", command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("rconapi: %s: read body: %w", command, err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Command: command, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			se.Message = env.Error
		}
		return se
	}
	if decodeErr != nil {
		return fmt.Errorf("rconapi: %s: decode envelope: %w", command, decodeErr)
	}
	if env.Failed || env.Error != "" {
		return &EnvelopeError{Command: command, Message: env.Error, Version: env.Version}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &EnvelopeError{Command: command, Message: "empty result", Version: env.Version}
	}
	if err := json.Unmarshal(env.Result, dest); err != nil {
		return fmt.Errorf("rconapi: %s: decode result: %w", command, err)
	}
	return nil
}

// IsEnvelopeError reports whether err is an application-level failure.
func IsEnvelopeError(err error) bool {
	var ee *EnvelopeError
	return errors.As(err, &ee)
}
