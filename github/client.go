package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "GitHub-Uploader-Service/1.0.0"

	apiVersion      = "2022-11-28"
	maxErrorBodyLen = 64 * 1024
)

// Observer receives one call per GitHub API request
type Observer interface {
	ObserveGitHubRequest(operation string, status int, elapsed time.Duration)
}

// Client is a GitHub REST client acting on behalf of one user
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	observer   Observer
	nowFunc    func() time.Time
}

type ClientOption func(*Client)

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithObserver reports request outcomes, typically to metrics
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithNowTime is used to make rate limit reset calculations deterministic
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = nowFunc
	}
}

// NewClient returns a client whose requests carry accessToken as a bearer token
func NewClient(ctx context.Context, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a JSON request and decodes a JSON response into out when out is not nil
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[github %s] encode request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("[github %s] build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := c.nowFunc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(operation, 0, started)
		return nil, fmt.Errorf("[github %s] %w", operation, err)
	}
	defer resp.Body.Close()
	c.observe(operation, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, c.responseError(resp, method, path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, fmt.Errorf("[github %s] decode response: %w", operation, err)
	}
	return resp, nil
}

func (c *Client) responseError(resp *http.Response, method, path string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	if isRateLimited(resp, apiErr) {
		return &RateLimitError{RetryAfter: retryAfter(resp.Header, c.nowFunc()), Err: apiErr}
	}
	return apiErr
}

func (c *Client) observe(operation string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveGitHubRequest(operation, status, c.nowFunc().Sub(started))
}
