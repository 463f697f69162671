package github

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// AuthenticatedUser returns the token owner's profile. The primary address from
// /user/emails is preferred over the public profile email.
func (c *Client) AuthenticatedUser(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, "authenticated_user", http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	if user.Name == "" {
		user.Name = user.Login
	}

	var emails []email
	if _, err := c.do(ctx, "user_emails", http.MethodGet, "/user/emails", nil, &emails); err != nil {
		log.Debug().Err(err).Str("login", user.Login).Msg("could not list user emails")
		return &user, nil
	}
	for _, e := range emails {
		if e.Primary {
			user.Email = e.Email
			break
		}
	}
	return &user, nil
}

// RateLimit returns the current quota for the token
func (c *Client) RateLimit(ctx context.Context) (*RateLimits, error) {
	var out struct {
		Resources RateLimits `json:"resources"`
	}
	if _, err := c.do(ctx, "rate_limit", http.MethodGet, "/rate_limit", nil, &out); err != nil {
		return nil, err
	}
	return &out.Resources, nil
}
