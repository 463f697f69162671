package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/token"
)

// SessionClaims is the verified content of a session token
type SessionClaims struct {
	SessionID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector verifies session tokens
type Inspector struct {
	signer         token.Signer
	revokedChecker RevokedChecker
	clock          clock
}

// NewInspector creates a new JWT inspector. revokedChecker may be nil.
func NewInspector(signer token.Signer, revokedChecker RevokedChecker, opts ...Option) *Inspector {
	return &Inspector{
		signer:         signer,
		revokedChecker: revokedChecker,
		clock:          newClock(opts),
	}
}

// Inspect verifies the signature, algorithm and expiry of rawToken and
// returns its claims.
func (i *Inspector) Inspect(rawToken string) (*SessionClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	parsed, err := jwtlib.ParseWithClaims(
		rawToken,
		jwtlib.MapClaims{},
		i.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(i.clock.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, apperrors.Wrapf(apperrors.ErrTokenExpired, "[Inspect]")
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Inspect] %v", err)
	}
	if !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Inspect] error extracting claims")
	}

	sid, _ := claims[claimSessionID].(string)
	if sid == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Inspect] token missing %s claim", claimSessionID)
	}
	jti, _ := claims[claimTokenID].(string)
	iat, _ := claims[claimIssuedAt].(float64)
	exp, _ := claims[claimExpiry].(float64)

	if jti != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(jti) {
		return nil, apperrors.ErrTokenRevoked
	}

	return &SessionClaims{
		SessionID: sid,
		TokenID:   jti,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
