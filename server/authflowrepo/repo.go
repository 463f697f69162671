package authflowrepo

import "time"

// AuthFlowState is a pending GitHub authorization started by this service
type AuthFlowState struct {
	ReturnURL string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the state may no longer complete a login
func (a AuthFlowState) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
	DeleteExpired(now time.Time) int
}
