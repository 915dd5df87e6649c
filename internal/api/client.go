package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for authenticated requests. The
// session manager implements this; requests without a token are sent
// unauthenticated.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the wallet API client.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a wallet API client rooted at baseURL (including the
// /api/v1 prefix).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetTokenSource attaches the credential provider used for authenticated
// endpoints. Safe to call once during startup, before any requests.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Error is a non-2xx response from the wallet server. Detail carries the
// server's human-readable message verbatim.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// IsAuthError reports whether err is a 401/403 rejection from the server.
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// do issues a request and decodes the JSON response into dst (ignored when
// dst is nil). Non-2xx statuses are returned as *Error with the server's
// detail message.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "billfold/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if dst == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", true, dst)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dst interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, true, dst)
}

// postJSONOpen is postJSON without the Authorization header, for the
// registration and password-reset endpoints.
func (c *Client) postJSONOpen(ctx context.Context, path string, payload, dst interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, false, dst)
}

func (c *Client) putJSON(ctx context.Context, path string, payload, dst interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, payload, true, dst)
}

func (c *Client) patchJSON(ctx context.Context, path string, payload, dst interface{}) error {
	return c.sendJSON(ctx, http.MethodPatch, path, payload, true, dst)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload interface{}, authed bool, dst interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", authed, dst)
}

func (c *Client) delete(ctx context.Context, path string, dst interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", true, dst)
}

// postForm sends a form-encoded body. Used by the token endpoint only, which
// is unauthenticated.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, dst interface{}) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, http.MethodPost, path, body, "application/x-www-form-urlencoded", false, dst)
}

// decodeError extracts the server's {"detail": "..."} error convention. A
// body that is not JSON still produces a usable *Error with the status code.
func decodeError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == "" {
		return &Error{Status: resp.StatusCode, Detail: strings.TrimSpace(http.StatusText(resp.StatusCode))}
	}
	return &Error{Status: resp.StatusCode, Detail: payload.Detail}
}
