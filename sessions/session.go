package sessions

import (
	"time"
)

// Identity is the authenticated GitHub actor a session is created for
type Identity struct {
	UserID      string
	Login       string
	Name        string
	Email       string
	AvatarURL   string
	AccessToken string
}

// Session binds an opaque session id to an upstream access credential.
// ExpiresAt always lies after CreatedAt and slides forward on Refresh.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Login        string    `json:"login"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	AccessToken  string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessAt time.Time `json:"lastAccessAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired reports whether the session is past its expiry at now
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Stats summarises the store contents
type Stats struct {
	Total             int     `json:"total"`
	Active            int     `json:"active"`
	Expired           int     `json:"expired"`
	AverageAgeSeconds float64 `json:"averageAgeSeconds"`
}

// Observer receives store lifecycle events, e.g. for metrics
type Observer interface {
	SessionCreated()
	SessionsExpired(count int)
	SessionsActive(count int)
}

type nopObserver struct{}

func (nopObserver) SessionCreated()     {}
func (nopObserver) SessionsExpired(int) {}
func (nopObserver) SessionsActive(int)  {}
