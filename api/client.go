// Package api is a typed client for the ArcFit admin REST API. It owns the
// wire shapes and the bearer-injecting transport; session lifecycle policy
// lives in the session package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Auth endpoint paths.
const (
	RouteAdminLogin  = "/api/auth/admin/login"
	RouteCurrentUser = "/api/auth/me"
	RouteRefresh     = "/api/auth/refresh"
	RouteLogout      = "/api/auth/logout"
)

const defaultTimeout = 30 * time.Second

// Client is the API client for the ArcFit admin backend. Authenticated
// requests go through httpClient, whose transport injects the bearer
// token; login and refresh go through bare, so a stale stored token is
// never attached to a credential exchange.
type Client struct {
	baseURL    string
	httpClient *http.Client
	bare       *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The bearer transport
// wraps whatever transport the given client carries.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header on all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the API at baseURL. Every request carries a
// bearer token read from tokens at call time, whenever one is present.
func New(baseURL string, tokens TokenSource, options ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range options {
		opt(c)
	}

	// Copy before wrapping: a caller-supplied client is never mutated,
	// and handing the same client to two New calls never double-wraps it.
	bare := *c.httpClient
	c.bare = &bare

	authed := *c.httpClient
	authed.Transport = &BearerTransport{
		Source: tokens,
		Base:   c.httpClient.Transport,
	}
	c.httpClient = &authed

	return c
}

// Login authenticates an admin by email and password. Sent on the bare
// client: no Authorization header.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.doWith(ctx, c.bare, http.MethodPost, RouteAdminLogin, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentUser fetches the authenticated admin's profile.
func (c *Client) CurrentUser(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, RouteCurrentUser, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges the refresh token for a new access token. Sent on the
// bare client: the expired access token is not attached.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var result RefreshResult
	if err := c.doWith(ctx, c.bare, http.MethodPost, RouteRefresh, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the refresh token server-side. Best-effort from the
// caller's point of view: local cleanup never waits on its outcome.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, RouteLogout, body, nil)
}

// do performs an authenticated request against path.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doWith(ctx, c.httpClient, method, path, body, out)
}

// doWith performs a request on the given client, encoding body as JSON
// when present and decoding the response envelope's data into out when
// non-nil.
func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// decodeEnvelope unwraps the {success, message, data} envelope, converting
// failures into *APIError.
func decodeEnvelope(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return &APIError{Status: resp.StatusCode}
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 || (env.Success != nil && !*env.Success) {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
