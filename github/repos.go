package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDescription = "Project uploaded via GitHub Uploader"
	CommitterName      = "GitHub Uploader"
	CommitterEmail     = "noreply@github-uploader.com"
)

type createRepoBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
	HasIssues   bool   `json:"has_issues"`
	HasProjects bool   `json:"has_projects"`
	HasWiki     bool   `json:"has_wiki"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type writeFileBody struct {
	Message   string    `json:"message"`
	Content   string    `json:"content"`
	Committer committer `json:"committer"`
}

type writeFileResponse struct {
	Commit Commit `json:"commit"`
}

// RepositoryExists reports whether owner/name exists and is visible to the user
func (c *Client) RepositoryExists(ctx context.Context, owner, name string) (bool, error) {
	_, err := c.do(ctx, "repository_exists", http.MethodGet, repoPath(owner, name), nil, nil)
	if err == nil {
		return true, nil
	}
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetRepository fetches owner/name
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	var repo Repository
	if _, err := c.do(ctx, "get_repository", http.MethodGet, repoPath(owner, name), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// CreateRepository creates an empty repository for the authenticated user and
// applies its topics. Topic failures are logged and do not fail the creation.
func (c *Client) CreateRepository(ctx context.Context, req CreateRepositoryRequest) (*Repository, error) {
	description := req.Description
	if description == "" {
		description = DefaultDescription
	}
	body := createRepoBody{
		Name:        req.Name,
		Description: description,
		Private:     req.Private,
		HasIssues:   true,
		HasProjects: true,
		HasWiki:     true,
	}

	var repo Repository
	if _, err := c.do(ctx, "create_repository", http.MethodPost, "/user/repos", body, &repo); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", apperrors.ErrRepositoryCreation, req.Name, err)
	}

	repo.Topics = []string{}
	if names := normalizeTopics(req.Topics); len(names) > 0 {
		topics := map[string][]string{"names": names}
		if _, err := c.do(ctx, "replace_topics", http.MethodPut, repoPath(repo.Owner.Login, repo.Name)+"/topics", topics, nil); err != nil {
			log.Warn().Err(err).Str("repository", repo.FullName).Msg("failed to set repository topics")
		} else {
			repo.Topics = names
		}
	}

	log.Info().Str("repository", repo.FullName).Bool("private", repo.Private).Msg("repository created")
	return &repo, nil
}

// WriteFile creates one file with its own commit. Content is always sent base64 encoded.
func (c *Client) WriteFile(ctx context.Context, req WriteFileRequest) (*Commit, error) {
	message := req.Message
	if message == "" {
		message = "Add " + req.Path
	}
	body := writeFileBody{
		Message:   message,
		Content:   base64.StdEncoding.EncodeToString(req.Content),
		Committer: committer{Name: CommitterName, Email: CommitterEmail},
	}

	var resp writeFileResponse
	if _, err := c.do(ctx, "write_file", http.MethodPut, repoPath(req.Owner, req.Repo)+"/contents/"+escapePath(req.Path), body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFileWrite, req.Path, err)
	}
	if resp.Commit.Message == "" {
		resp.Commit.Message = message
	}
	return &resp.Commit, nil
}

// ListRepositories returns one page of the user's repositories, most recently updated first
func (c *Client) ListRepositories(ctx context.Context, page, perPage int) ([]Repository, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 30
	}
	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))

	repos := make([]Repository, 0)
	if _, err := c.do(ctx, "list_repositories", http.MethodGet, "/user/repos?"+q.Encode(), nil, &repos); err != nil {
		return nil, err
	}
	for i := range repos {
		if repos[i].Topics == nil {
			repos[i].Topics = []string{}
		}
	}
	return repos, nil
}

func repoPath(owner, name string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// normalizeTopics lowercases and de-duplicates topics, GitHub rejects uppercase names
func normalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
