package authflowrepo

import (
	"errors"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.RWMutex
	states  map[string]*AuthFlowState
	nowTime func() time.Time
}

type Option func(*InMemoryRepo)

// WithNowTime sets the clock used to reject expired states
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(opts ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		states:  make(map[string]*AuthFlowState),
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *authState
	r.states[state] = &copied
	return nil
}

// Get retrieves a live auth flow state. Unknown and expired states are both
// reported as ErrInvalidState.
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, apperrors.ErrInvalidState
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[state]
	if !exists || authState.IsExpired(r.nowTime()) {
		return nil, apperrors.ErrInvalidState
	}

	copied := *authState
	return &copied, nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

// DeleteExpired drops every state past its expiry and returns how many were removed
func (r *InMemoryRepo) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for state, authState := range r.states {
		if authState.IsExpired(now) {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored states
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
