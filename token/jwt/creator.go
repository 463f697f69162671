package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-repo-uploader/token"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	claimSessionID = "sid"
	claimIssuedAt  = "iat"
	claimExpiry    = "exp"
	claimTokenID   = "jti"
)

// Option configures a Creator or Inspector
type Option func(*clock)

type clock struct {
	now func() time.Time
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *clock) {
		c.now = nowFunc
	}
}

func newClock(opts []Option) clock {
	c := clock{now: func() time.Time { return NowTimeFunc() }}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Creator seals session ids into signed JWTs
type Creator struct {
	signer token.Signer
	ttl    time.Duration
	clock  clock
}

// NewCreator creates a new JWT creator whose tokens live for ttl
func NewCreator(signer token.Signer, ttl time.Duration, opts ...Option) *Creator {
	return &Creator{
		signer: signer,
		ttl:    ttl,
		clock:  newClock(opts),
	}
}

// CreateSessionToken creates a token carrying only the session id. The
// upstream credential never leaves the server.
func (c *Creator) CreateSessionToken(sessionID string) (*string, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	now := c.clock.now()
	claims := jwtlib.MapClaims{
		claimSessionID: sessionID,
		claimIssuedAt:  now.Unix(),
		claimExpiry:    now.Add(c.ttl).Unix(),
		claimTokenID:   uuid.New().String(),
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return &signedToken, nil
}
