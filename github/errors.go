package github

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// DefaultRetryAfter is reported when GitHub signals a rate limit without a reset time
const DefaultRetryAfter = time.Minute

// APIError is a non-2xx response from the GitHub REST API
type APIError struct {
	StatusCode       int    `json:"-"`
	Method           string `json:"-"`
	Path             string `json:"-"`
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is lets callers test an APIError against the shared taxonomy
func (e *APIError) Is(target error) bool {
	switch target {
	case apperrors.ErrUpstreamUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case apperrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// RateLimitError reports an exhausted GitHub quota
type RateLimitError struct {
	RetryAfter time.Duration
	Err        *APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Is(target error) bool {
	return target == apperrors.ErrUpstreamRateLimit
}

// isRateLimited matches the primary and secondary rate limit responses
func isRateLimited(resp *http.Response, apiErr *APIError) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "rate limit")
}

func retryAfter(h http.Header, now time.Time) time.Duration {
	if s, err := strconv.Atoi(h.Get("Retry-After")); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(reset, 0).Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return DefaultRetryAfter
}
