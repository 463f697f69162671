package token

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	// SessionKeyInfo binds derived key material to session token signing
	SessionKeyInfo = "repo-uploader session token v1"

	derivedKeyLength = 32
	minSecretLength  = 32
)

// DeriveKey expands a configured secret into a fixed length key using
// HKDF-SHA256. Different info values produce independent keys.
func DeriveKey(secret, info string) ([]byte, error) {
	if len(secret) < minSecretLength {
		return nil, errors.Errorf("secret must be at least %d characters", minSecretLength)
	}
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, derivedKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Wrap(err, "hkdf expand")
	}
	return key, nil
}
