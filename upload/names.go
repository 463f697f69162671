package upload

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// DefaultMaxNameAttempts bounds the name, name-2, ... probe sequence
const DefaultMaxNameAttempts = 100

// candidateName returns the name tried on the given 1-based attempt
func candidateName(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	suffix := "-" + strconv.Itoa(attempt)
	if len(base)+len(suffix) > MaxProjectNameLength {
		base = strings.TrimRight(base[:MaxProjectNameLength-len(suffix)], ".-")
	}
	return base + suffix
}

// ResolveName returns the first free repository name for owner, probing
// base, base-2, base-3 and so on.
func ResolveName(ctx context.Context, repos RepositoryWriter, owner, base string, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxNameAttempts
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := candidateName(base, attempt)
		exists, err := repos.RepositoryExists(ctx, owner, name)
		if err != nil {
			return "", fmt.Errorf("[ResolveName] check %s/%s: %w", owner, name, err)
		}
		if !exists {
			return name, nil
		}
	}
	return "", apperrors.New(apperrors.CodeNameCollisionExhausted,
		fmt.Sprintf("No free repository name found for %q after %d attempts", base, maxAttempts),
		apperrors.ErrNameCollisionExhausted)
}
