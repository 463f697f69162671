package fakegithub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-repo-uploader/github"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/upload"
)

var _ upload.RepositoryWriter = (*FakeGitHub)(nil)

// FakeGitHub is an in-memory stand-in for the GitHub API acting as a single user
type FakeGitHub struct {
	lock   sync.RWMutex
	user   github.User
	repos  map[string]*github.Repository
	order  []string
	writes map[string][]github.WriteFileRequest
	nextID int64

	// Errors injected by tests
	CreateErr   error
	UserErr     error
	ListErr     error
	ExistsErr   error
	WriteErrors map[string]error
}

func NewFakeGitHub(user github.User) *FakeGitHub {
	return &FakeGitHub{
		user:        user,
		repos:       make(map[string]*github.Repository),
		writes:      make(map[string][]github.WriteFileRequest),
		WriteErrors: make(map[string]error),
		nextID:      1,
	}
}

func fullName(owner, name string) string {
	return owner + "/" + name
}

// AddRepository seeds an existing repository owned by the fake user
func (f *FakeGitHub) AddRepository(name string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.addLocked(github.CreateRepositoryRequest{Name: name})
}

func (f *FakeGitHub) addLocked(req github.CreateRepositoryRequest) *github.Repository {
	full := fullName(f.user.Login, req.Name)
	topics := append([]string{}, req.Topics...)
	repo := &github.Repository{
		ID:          f.nextID,
		Name:        req.Name,
		FullName:    full,
		Description: req.Description,
		Private:     req.Private,
		HTMLURL:     "https://github.com/" + full,
		CloneURL:    "https://github.com/" + full + ".git",
		SSHURL:      "git@github.com:" + full + ".git",
		Topics:      topics,
		CreatedAt:   time.Unix(1_700_000_000+f.nextID, 0).UTC(),
		UpdatedAt:   time.Unix(1_700_000_000+f.nextID, 0).UTC(),
		Owner:       github.Owner{Login: f.user.Login, ID: f.user.ID},
	}
	f.nextID++
	f.repos[full] = repo
	f.order = append(f.order, full)
	return repo
}

func (f *FakeGitHub) RepositoryExists(_ context.Context, owner, name string) (bool, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	_, ok := f.repos[fullName(owner, name)]
	return ok, nil
}

func (f *FakeGitHub) CreateRepository(_ context.Context, req github.CreateRepositoryRequest) (*github.Repository, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.CreateErr != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRepositoryCreation, f.CreateErr)
	}
	if _, exists := f.repos[fullName(f.user.Login, req.Name)]; exists {
		return nil, fmt.Errorf("%w: name already exists on this account", apperrors.ErrRepositoryCreation)
	}
	if req.Description == "" {
		req.Description = github.DefaultDescription
	}
	repo := *f.addLocked(req)
	return &repo, nil
}

func (f *FakeGitHub) WriteFile(_ context.Context, req github.WriteFileRequest) (*github.Commit, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err, ok := f.WriteErrors[req.Path]; ok {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFileWrite, req.Path, err)
	}
	full := fullName(req.Owner, req.Repo)
	if _, ok := f.repos[full]; !ok {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFileWrite, req.Path, apperrors.ErrNotFound)
	}
	req.Content = append([]byte(nil), req.Content...)
	f.writes[full] = append(f.writes[full], req)
	return &github.Commit{
		SHA:     fmt.Sprintf("%040d", len(f.writes[full])),
		Message: req.Message,
	}, nil
}

func (f *FakeGitHub) AuthenticatedUser(context.Context) (*github.User, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.UserErr != nil {
		return nil, f.UserErr
	}
	u := f.user
	return &u, nil
}

func (f *FakeGitHub) ListRepositories(_ context.Context, page, perPage int) ([]github.Repository, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	repos := make([]github.Repository, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		repos = append(repos, *f.repos[f.order[i]])
	}
	return repos, nil
}

// Writes returns the files written to owner/name in write order
func (f *FakeGitHub) Writes(owner, name string) []github.WriteFileRequest {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]github.WriteFileRequest(nil), f.writes[fullName(owner, name)]...)
}

// WrittenPaths returns the paths written to owner/name in write order
func (f *FakeGitHub) WrittenPaths(owner, name string) []string {
	writes := f.Writes(owner, name)
	paths := make([]string, len(writes))
	for i, w := range writes {
		paths[i] = w.Path
	}
	return paths
}

// Repository returns a copy of owner/name, or nil
func (f *FakeGitHub) Repository(owner, name string) *github.Repository {
	f.lock.RLock()
	defer f.lock.RUnlock()
	repo, ok := f.repos[fullName(owner, name)]
	if !ok {
		return nil
	}
	cp := *repo
	return &cp
}
