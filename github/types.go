package github

import "time"

// Owner is the account a repository belongs to
type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// Repository is the subset of the GitHub repository resource the uploader reports
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	Private         bool      `json:"private"`
	HTMLURL         string    `json:"html_url"`
	CloneURL        string    `json:"clone_url"`
	SSHURL          string    `json:"ssh_url"`
	Topics          []string  `json:"topics"`
	Language        string    `json:"language,omitempty"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Owner           Owner     `json:"owner"`
}

// User is the authenticated GitHub account
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Company   string `json:"company,omitempty"`
	Location  string `json:"location,omitempty"`

	PublicRepos int `json:"public_repos"`
	Followers   int `json:"followers"`
	Following   int `json:"following"`
}

type email struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// CreateRepositoryRequest describes a repository to create for the authenticated user
type CreateRepositoryRequest struct {
	Name        string
	Description string
	Private     bool
	Topics      []string
}

// WriteFileRequest creates a single file through the contents API
type WriteFileRequest struct {
	Owner   string
	Repo    string
	Path    string
	Message string
	Content []byte
}

// Commit identifies the commit produced by a file write
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"html_url"`
}

// Rate is one rate limit bucket
type Rate struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Used      int   `json:"used"`
	Reset     int64 `json:"reset"`
}

// RateLimits is the response of GET /rate_limit
type RateLimits struct {
	Core   Rate `json:"core"`
	Search Rate `json:"search"`
}
