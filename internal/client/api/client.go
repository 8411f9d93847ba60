// Package api implements the HTTP client for the remote identity and
// debt-ledger service. It owns transport concerns only: token headers,
// one-shot refresh retry, per-call timeouts, and mapping HTTP failures onto
// the small error set the authenticator reasons about.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qarzkitob/qarzkitob/internal/client/models"
)

// Client is the remote identity service contract consumed by the
// session authenticator.
type Client interface {
	// Authenticate exchanges credentials for a token pair. Fails with
	// ErrInvalidCredentials on explicit rejection and ErrUnavailable when no
	// verdict could be rendered.
	Authenticate(ctx context.Context, username, password string) (models.TokenPair, error)

	// FetchProfile returns the identity for the currently held access token.
	FetchProfile(ctx context.Context) (models.Identity, error)

	// InvalidateSession tells the server to drop the session. Best-effort;
	// the caller decides whether to care about the error.
	InvalidateSession(ctx context.Context) error

	// ListDebtors returns the debtor records visible to the current session.
	ListDebtors(ctx context.Context) ([]models.Debtor, error)

	// SetTokens installs the token pair used for authenticated calls.
	SetTokens(pair models.TokenPair)

	// Tokens returns the currently held token pair.
	Tokens() models.TokenPair
}

// HTTPClient talks JSON over HTTP to the ledger backend.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration

	mu     sync.Mutex
	tokens models.TokenPair

	// onTokensRefreshed, when set, is invoked after a successful automatic
	// token refresh so the owner can re-persist the pair.
	onTokensRefreshed func(models.TokenPair)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client (tests).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpc = c }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

// WithTokensRefreshed registers a callback fired after an automatic refresh.
func WithTokensRefreshed(fn func(models.TokenPair)) Option {
	return func(h *HTTPClient) { h.onTokensRefreshed = fn }
}

// NewHTTPClient constructs a client for the given base URL,
// e.g. "https://ledger.example.com".
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		httpc:   &http.Client{},
		timeout: 12 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) SetTokens(pair models.TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = pair
}

func (c *HTTPClient) Tokens() models.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *HTTPClient) Authenticate(ctx context.Context, username, password string) (models.TokenPair, error) {
	body := map[string]string{"username": username, "password": password}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	status, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, "", &resp)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("login: %w", err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.TokenPair{}, ErrInvalidCredentials
	case status < 200 || status >= 300:
		return models.TokenPair{}, fmt.Errorf("login: unexpected status %d: %w", status, ErrUnavailable)
	}

	if resp.AccessToken == "" {
		// a 2xx without a token is a response we cannot act on
		return models.TokenPair{}, fmt.Errorf("login: empty access token: %w", ErrUnavailable)
	}

	pair := models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	c.SetTokens(pair)
	return pair, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context) (models.Identity, error) {
	var identity models.Identity
	if err := c.doAuthed(ctx, http.MethodGet, "/api/auth/profile", nil, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("profile: %w", err)
	}
	return identity, nil
}

func (c *HTTPClient) InvalidateSession(ctx context.Context) error {
	if err := c.doAuthed(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *HTTPClient) ListDebtors(ctx context.Context) ([]models.Debtor, error) {
	var debtors []models.Debtor
	if err := c.doAuthed(ctx, http.MethodGet, "/api/debtors", nil, &debtors); err != nil {
		return nil, fmt.Errorf("debtors: %w", err)
	}
	return debtors, nil
}

// doAuthed performs an authenticated request, retrying exactly once through
// the refresh endpoint when the access token is rejected and a refresh token
// is available.
func (c *HTTPClient) doAuthed(ctx context.Context, method, path string, body any, out any) error {
	tokens := c.Tokens()

	status, err := c.doJSON(ctx, method, path, body, tokens.AccessToken, out)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && tokens.RefreshToken != "" {
		refreshed, refreshErr := c.refresh(ctx, tokens.RefreshToken)
		if refreshErr != nil {
			return ErrUnauthorized
		}
		status, err = c.doJSON(ctx, method, path, body, refreshed.AccessToken, out)
		if err != nil {
			return err
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status < 200 || status >= 300:
		return fmt.Errorf("unexpected status %d: %w", status, ErrUnavailable)
	}
	return nil
}

func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	status, err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", body, "", &resp)
	if err != nil {
		return models.TokenPair{}, err
	}
	if status < 200 || status >= 300 || resp.AccessToken == "" {
		return models.TokenPair{}, ErrUnauthorized
	}

	pair := models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	c.SetTokens(pair)
	if c.onTokensRefreshed != nil {
		c.onTokensRefreshed(pair)
	}
	return pair, nil
}

// doJSON sends one request and decodes a JSON response body into out (when
// out is non-nil and the status is 2xx). Transport failures and undecodable
// bodies map to ErrUnavailable; HTTP status handling is left to the caller.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, accessToken string, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}
