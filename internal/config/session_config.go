package config

import "time"

const (
	sessionSecretVar = "SESSION_SECRET"
	sessionMaxAgeVar = "SESSION_MAX_AGE"
	sessionSweepVar  = "SESSION_SWEEP_INTERVAL_MS"
)

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionMaxAge() time.Duration
	GetSessionSweepInterval() time.Duration
	GetOAuthStateTTL() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionSecret() string {
	return GetEnv(sessionSecretVar, "")
}

// GetSessionMaxAge reads SESSION_MAX_AGE in milliseconds (default 24h)
func (Session) GetSessionMaxAge() time.Duration {
	return GetEnvMillis(sessionMaxAgeVar, 24*time.Hour)
}

func (Session) GetSessionSweepInterval() time.Duration {
	return GetEnvMillis(sessionSweepVar, time.Minute)
}

func (Session) GetOAuthStateTTL() time.Duration {
	return 10 * time.Minute
}
