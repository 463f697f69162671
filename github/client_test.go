package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-repo-uploader/github"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

type testFixture struct {
	server   *httptest.Server
	mux      *http.ServeMux
	client   *github.Client
	mu       sync.Mutex
	requests []recordedRequest
	observed []string
}

func (f *testFixture) ObserveGitHubRequest(operation string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, operation+":"+strconv.Itoa(status))
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	f.client = github.NewClient(context.Background(), "gho_token",
		github.WithBaseURL(f.server.URL), github.WithObserver(f), github.WithNowTime(now))
	return f
}

func (f *testFixture) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRepositoryExists(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /repos/octocat/taken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "taken"})
	})
	f.mux.HandleFunc("GET /repos/octocat/free", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})
	f.mux.HandleFunc("GET /repos/octocat/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})

	exists, err := f.client.RepositoryExists(context.Background(), "octocat", "taken")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = f.client.RepositoryExists(context.Background(), "octocat", "free")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = f.client.RepositoryExists(context.Background(), "octocat", "broken")
	var apiErr *github.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "boom", apiErr.Message)

	require.Equal(t, "Bearer gho_token", f.recorded()[0].Auth)
	require.Contains(t, f.observed, "repository_exists:404")
}

func TestCreateRepository(t *testing.T) {
	t.Run("creates and sets topics", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{
				"id": 1, "name": "demo", "full_name": "octocat/demo", "private": true,
				"html_url": "https://github.com/octocat/demo", "owner": map[string]any{"login": "octocat"},
			})
		})
		f.mux.HandleFunc("PUT /repos/octocat/demo/topics", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"names": []string{"go"}})
		})

		repo, err := f.client.CreateRepository(context.Background(), github.CreateRepositoryRequest{
			Name: "demo", Private: true, Topics: []string{"Go", " go ", "cli"},
		})
		require.NoError(t, err)
		require.Equal(t, "octocat/demo", repo.FullName)
		require.Equal(t, []string{"go", "cli"}, repo.Topics)

		reqs := f.recorded()
		require.Len(t, reqs, 2)
		require.Equal(t, "demo", reqs[0].Body["name"])
		require.Equal(t, github.DefaultDescription, reqs[0].Body["description"])
		require.Equal(t, false, reqs[0].Body["auto_init"])
		require.Equal(t, true, reqs[0].Body["has_issues"])
		require.Equal(t, true, reqs[0].Body["private"])
		require.Equal(t, []any{"go", "cli"}, reqs[1].Body["names"])
	})

	t.Run("topic failure is not fatal", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{"name": "demo", "full_name": "octocat/demo", "owner": map[string]any{"login": "octocat"}})
		})
		f.mux.HandleFunc("PUT /repos/octocat/demo/topics", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "Validation Failed"})
		})

		repo, err := f.client.CreateRepository(context.Background(), github.CreateRepositoryRequest{Name: "demo", Topics: []string{"x"}})
		require.NoError(t, err)
		require.Empty(t, repo.Topics)
	})

	t.Run("failure maps to repository creation", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "name already exists on this account"})
		})

		_, err := f.client.CreateRepository(context.Background(), github.CreateRepositoryRequest{Name: "demo"})
		require.ErrorIs(t, err, apperrors.ErrRepositoryCreation)
		require.Equal(t, apperrors.CodeRepositoryCreation, apperrors.CodeOf(err))
	})

	t.Run("rate limit", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(1_700_000_090, 10))
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "API rate limit exceeded"})
		})

		_, err := f.client.CreateRepository(context.Background(), github.CreateRepositoryRequest{Name: "demo"})
		require.ErrorIs(t, err, apperrors.ErrUpstreamRateLimit)
		require.ErrorIs(t, err, apperrors.ErrRepositoryCreation)
		var rl *github.RateLimitError
		require.ErrorAs(t, err, &rl)
		require.Equal(t, 90*time.Second, rl.RetryAfter)
		require.Equal(t, apperrors.CodeRateLimitExceeded, apperrors.CodeOf(err))
	})

	t.Run("secondary rate limit with retry after", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"message": "slow down"})
		})

		_, err := f.client.CreateRepository(context.Background(), github.CreateRepositoryRequest{Name: "demo"})
		var rl *github.RateLimitError
		require.ErrorAs(t, err, &rl)
		require.Equal(t, 30*time.Second, rl.RetryAfter)
	})
}

func TestWriteFile(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("PUT /repos/octocat/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"commit": map[string]any{"sha": "abc123", "html_url": "https://github.com/c/abc123"}})
	})

	content := []byte{0x00, 0xff, 'h', 'i'}
	commit, err := f.client.WriteFile(context.Background(), github.WriteFileRequest{
		Owner: "octocat", Repo: "demo", Path: "src/my file.bin", Content: content,
	})
	require.NoError(t, err)
	require.Equal(t, "abc123", commit.SHA)
	require.Equal(t, "Add src/my file.bin", commit.Message)

	req := f.recorded()[0]
	require.Equal(t, "/repos/octocat/demo/contents/src/my file.bin", req.Path)
	require.Equal(t, base64.StdEncoding.EncodeToString(content), req.Body["content"])
	require.Equal(t, "Add src/my file.bin", req.Body["message"])
	require.Equal(t, map[string]any{"name": github.CommitterName, "email": github.CommitterEmail}, req.Body["committer"])

	t.Run("failure maps to file write", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("PUT /repos/octocat/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "conflict"})
		})
		_, err := f.client.WriteFile(context.Background(), github.WriteFileRequest{Owner: "octocat", Repo: "demo", Path: "a.txt"})
		require.ErrorIs(t, err, apperrors.ErrFileWrite)
		require.Equal(t, apperrors.CodeFileUpload, apperrors.CodeOf(err))
	})
}

func TestListRepositories(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 2, "name": "new", "topics": []string{"go"}},
			{"id": 1, "name": "old"},
		})
	})

	repos, err := f.client.ListRepositories(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	require.Equal(t, "new", repos[0].Name)
	require.NotNil(t, repos[1].Topics)
	require.Equal(t, "direction=desc&page=1&per_page=30&sort=updated", f.recorded()[0].Query)
}

func TestAuthenticatedUser(t *testing.T) {
	t.Run("primary email preferred", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": 42, "login": "octocat", "email": "public@example.com"})
		})
		f.mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"email": "other@example.com", "primary": false},
				{"email": "primary@example.com", "primary": true},
			})
		})

		user, err := f.client.AuthenticatedUser(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(42), user.ID)
		require.Equal(t, "octocat", user.Name, "name falls back to login")
		require.Equal(t, "primary@example.com", user.Email)
	})

	t.Run("email listing failure keeps public email", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": 42, "login": "octocat", "name": "Octo", "email": "public@example.com"})
		})
		f.mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "scope missing"})
		})

		user, err := f.client.AuthenticatedUser(context.Background())
		require.NoError(t, err)
		require.Equal(t, "public@example.com", user.Email)
	})

	t.Run("revoked credential", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
		})

		_, err := f.client.AuthenticatedUser(context.Background())
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)
	})
}

func TestRateLimit(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /rate_limit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"resources": map[string]any{
			"core": map[string]any{"limit": 5000, "remaining": 4999, "reset": 1_700_003_600},
		}})
	})

	limits, err := f.client.RateLimit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5000, limits.Core.Limit)
	require.Equal(t, 4999, limits.Core.Remaining)
}

type staticGitHubConfig struct{}

func (staticGitHubConfig) GetGitHubClientID() string     { return "client-id-123" }
func (staticGitHubConfig) GetGitHubClientSecret() string { return "client-secret-123" }
func (staticGitHubConfig) GetGitHubRedirectURL() string  { return "http://localhost:3000/auth/github/callback" }
func (staticGitHubConfig) GetGitHubAPIURL() string       { return "" }
func (staticGitHubConfig) GetGitHubScopes() []string     { return []string{"user:email", "repo"} }

func TestOAuth(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad_verification_code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "gho_exchanged", "token_type": "bearer"})
	}))
	t.Cleanup(tokenServer.Close)

	o := github.NewOAuth(staticGitHubConfig{}, github.WithEndpoint(oauth2.Endpoint{
		AuthURL:  "https://github.com/login/oauth/authorize",
		TokenURL: tokenServer.URL,
	}))

	authURL := o.AuthCodeURL("state-xyz")
	require.Contains(t, authURL, "state=state-xyz")
	require.Contains(t, authURL, "client_id=client-id-123")
	require.Contains(t, authURL, "scope=user%3Aemail+repo")
	require.Contains(t, authURL, "allow_signup=true")

	token, err := o.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "gho_exchanged", token)

	_, err = o.Exchange(context.Background(), "bad-code")
	require.Error(t, err)

	a, err := github.NewState()
	require.NoError(t, err)
	b, err := github.NewState()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Len(t, a, 43)
}
