package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-repo-uploader/internal/config"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// OAuth runs the authorization code flow against GitHub
type OAuth struct {
	config *oauth2.Config
}

type OAuthOption func(*oauth2.Config)

// WithEndpoint replaces the GitHub endpoint, used by tests
func WithEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(c *oauth2.Config) {
		c.Endpoint = endpoint
	}
}

func NewOAuth(cfg config.GitHubConfig, opts ...OAuthOption) *OAuth {
	c := &oauth2.Config{
		ClientID:     cfg.GetGitHubClientID(),
		ClientSecret: cfg.GetGitHubClientSecret(),
		RedirectURL:  cfg.GetGitHubRedirectURL(),
		Scopes:       cfg.GetGitHubScopes(),
		Endpoint:     githuboauth.Endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return &OAuth{config: c}
}

// AuthCodeURL is the GitHub consent page URL carrying state
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("allow_signup", "true"))
}

// Exchange trades an authorization code for the user's access token
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("[OAuth Exchange] %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("[OAuth Exchange] empty access token")
	}
	return token.AccessToken, nil
}

// NewState returns a random URL safe CSRF state value
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[NewState] %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
