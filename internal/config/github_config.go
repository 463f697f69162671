package config

import "strings"

const (
	githubClientIDVar     = "GITHUB_CLIENT_ID"
	githubClientSecretVar = "GITHUB_CLIENT_SECRET"
	githubRedirectURLVar  = "GITHUB_REDIRECT_URL"
	githubAPIURLVar       = "GITHUB_API_URL"
	githubScopesVar       = "GITHUB_SCOPES"

	// GitHubCallbackPath is appended to the base URL to build the OAuth redirect URL
	GitHubCallbackPath = "/auth/github/callback"
)

type GitHubConfig interface {
	GetGitHubClientID() string
	GetGitHubClientSecret() string
	GetGitHubRedirectURL() string
	GetGitHubAPIURL() string
	GetGitHubScopes() []string
}

type GitHub struct{}

var _ GitHubConfig = GitHub{}

func (GitHub) GetGitHubClientID() string {
	return GetEnv(githubClientIDVar, "")
}

func (GitHub) GetGitHubClientSecret() string {
	return GetEnv(githubClientSecretVar, "")
}

func (GitHub) GetGitHubRedirectURL() string {
	return GetEnv(githubRedirectURLVar, EnvVars{}.GetBaseURL()+GitHubCallbackPath)
}

func (GitHub) GetGitHubAPIURL() string {
	return strings.TrimSuffix(GetEnv(githubAPIURLVar, "https://api.github.com"), "/")
}

func (GitHub) GetGitHubScopes() []string {
	return strings.Fields(strings.ReplaceAll(GetEnv(githubScopesVar, "user:email,repo,public_repo"), ",", " "))
}
