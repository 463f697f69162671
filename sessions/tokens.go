package sessions

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// IssueToken seals the id of a live session into a signed token
func (s *Store) IssueToken(sessionID string) (string, error) {
	if _, err := s.Get(sessionID); err != nil {
		return "", fmt.Errorf("[IssueToken] %w", err)
	}
	raw, err := s.creator.CreateSessionToken(sessionID)
	if err != nil {
		return "", fmt.Errorf("[IssueToken] %w", err)
	}
	return *raw, nil
}

// VerifyToken checks the token and returns the session id it carries. It does
// not consult the session table.
func (s *Store) VerifyToken(raw string) (string, error) {
	claims, err := s.inspector.Inspect(raw)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Authenticate resolves a token to its live session and slides the session's
// expiry forward.
func (s *Store) Authenticate(raw string) (*Session, error) {
	sessionID, err := s.VerifyToken(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(sessionID); err != nil {
		return nil, err
	}
	return s.Get(sessionID)
}

// Revoke destroys the session behind raw and rejects the token itself until
// it would have expired. Unverifiable tokens are reported as invalid.
func (s *Store) Revoke(raw string) error {
	claims, err := s.inspector.Inspect(raw)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenRevoked) {
			return nil
		}
		return err
	}
	if err := s.revoked.Add(claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("[Revoke] %w", err)
	}
	s.Destroy(claims.SessionID)
	return nil
}
