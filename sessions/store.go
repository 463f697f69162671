package sessions

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/token"
	"github.com/jrsteele09/go-repo-uploader/token/jwt"
)

// Store is a thread-safe in-memory session table with TTL expiry
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration
	nowTime  func() time.Time

	signer    token.Signer
	creator   *jwt.Creator
	inspector *jwt.Inspector
	revoked   token.RevokedTokenCache
	observer  Observer

	sweepHooks []func(now time.Time)
	sweeper    *sweeper
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithSigner overrides the signer derived from the session secret
func WithSigner(signer token.Signer) StoreOption {
	return func(s *Store) {
		s.signer = signer
	}
}

// WithMaxAge overrides the configured session lifetime
func WithMaxAge(maxAge time.Duration) StoreOption {
	return func(s *Store) {
		s.maxAge = maxAge
	}
}

// WithObserver registers an observer for store events
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		s.observer = o
	}
}

// WithSweepHook registers a function run after every sweep, used to expire
// other short-lived state on the same schedule.
func WithSweepHook(hook func(now time.Time)) StoreOption {
	return func(s *Store) {
		s.sweepHooks = append(s.sweepHooks, hook)
	}
}

// NewStore creates an empty store. Tokens are signed with a key derived from
// the configured session secret unless WithSigner is supplied.
func NewStore(cfg config.SessionConfig, opts ...StoreOption) (*Store, error) {
	s := &Store{
		sessions: make(map[string]*Session),
		maxAge:   cfg.GetSessionMaxAge(),
		nowTime:  time.Now,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.maxAge <= 0 {
		return nil, fmt.Errorf("[NewStore] session max age must be positive")
	}
	if s.signer == nil {
		signer, err := token.NewSessionSigner(cfg.GetSessionSecret())
		if err != nil {
			return nil, fmt.Errorf("[NewStore] %w", err)
		}
		s.signer = signer
	}
	s.revoked = token.NewInMemoryRevokedTokenCache(token.WithRevocationNowTime(s.nowTime))
	s.creator = jwt.NewCreator(s.signer, s.maxAge, jwt.WithNowTime(s.nowTime))
	s.inspector = jwt.NewInspector(s.signer, s.revoked, jwt.WithNowTime(s.nowTime))
	return s, nil
}

// MaxAge returns the session lifetime
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Create stores a new session for identity
func (s *Store) Create(identity Identity) (*Session, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("[Store Create] user id is required")
	}
	if identity.AccessToken == "" {
		return nil, fmt.Errorf("[Store Create] access token is required")
	}

	now := s.nowTime()
	session := &Session{
		ID:           uuid.New().String(),
		UserID:       identity.UserID,
		Login:        identity.Login,
		Name:         identity.Name,
		Email:        identity.Email,
		AvatarURL:    identity.AvatarURL,
		AccessToken:  identity.AccessToken,
		CreatedAt:    now,
		LastAccessAt: now,
		ExpiresAt:    now.Add(s.maxAge),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	active := len(s.sessions)
	s.mu.Unlock()

	s.observer.SessionCreated()
	s.observer.SessionsActive(active)

	copied := *session
	return &copied, nil
}

// Get returns a copy of the session. An expired session is evicted and
// reported as not found.
func (s *Store) Get(id string) (*Session, error) {
	now := s.nowTime()

	s.mu.RLock()
	session, ok := s.sessions[id]
	var copied Session
	if ok {
		copied = *session
	}
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if copied.IsExpired(now) {
		s.evict(id, now)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSessionNotFound, apperrors.ErrSessionExpired)
	}
	return &copied, nil
}

// evict removes id if it is still expired at now
func (s *Store) evict(id string, now time.Time) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	removed := ok && session.IsExpired(now)
	if removed {
		delete(s.sessions, id)
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if removed {
		s.observer.SessionsExpired(1)
		s.observer.SessionsActive(active)
	}
}

// Refresh slides the expiry of a live session forward by the max age
func (s *Store) Refresh(id string) error {
	now := s.nowTime()

	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}
	if session.IsExpired(now) {
		delete(s.sessions, id)
		active := len(s.sessions)
		s.mu.Unlock()
		s.observer.SessionsExpired(1)
		s.observer.SessionsActive(active)
		return fmt.Errorf("%w: %w", apperrors.ErrSessionNotFound, apperrors.ErrSessionExpired)
	}
	session.LastAccessAt = now
	session.ExpiresAt = now.Add(s.maxAge)
	s.mu.Unlock()
	return nil
}

// Destroy removes a session, reporting whether it existed
func (s *Store) Destroy(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	if ok {
		s.observer.SessionsActive(active)
	}
	return ok
}

// DestroyUserSessions removes every session belonging to userID
func (s *Store) DestroyUserSessions(userID string) int {
	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			removed++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.observer.SessionsActive(active)
	}
	return removed
}

// UserSessions returns copies of the live sessions belonging to userID
func (s *Store) UserSessions(userID string) []Session {
	now := s.nowTime()
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Session, 0)
	for _, session := range s.sessions {
		if session.UserID == userID && !session.IsExpired(now) {
			result = append(result, *session)
		}
	}
	return result
}

// ActiveCount returns the number of sessions that have not expired
func (s *Store) ActiveCount() int {
	now := s.nowTime()
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, session := range s.sessions {
		if !session.IsExpired(now) {
			count++
		}
	}
	return count
}

// Stats reports totals and the average age of live sessions
func (s *Store) Stats() Stats {
	now := s.nowTime()
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: len(s.sessions)}
	var totalAge time.Duration
	for _, session := range s.sessions {
		if session.IsExpired(now) {
			stats.Expired++
			continue
		}
		stats.Active++
		totalAge += now.Sub(session.CreatedAt)
	}
	if stats.Active > 0 {
		stats.AverageAgeSeconds = totalAge.Seconds() / float64(stats.Active)
	}
	return stats
}

// SweepExpired removes all expired sessions in a single critical section
// and returns how many were removed.
func (s *Store) SweepExpired() int {
	now := s.nowTime()

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	s.revoked.Cleanup()
	for _, hook := range s.sweepHooks {
		hook(now)
	}

	if removed > 0 {
		s.observer.SessionsExpired(removed)
	}
	s.observer.SessionsActive(active)
	return removed
}
