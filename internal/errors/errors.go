package errors

import (
	"errors"
	"fmt"
)

// Common error types for the uploader
var (
	// Validation errors
	ErrValidation         = errors.New("validation failed")
	ErrNoFile             = errors.New("no file uploaded")
	ErrInvalidProjectName = errors.New("invalid project name")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")

	// Pipeline errors
	ErrArchiveExtraction      = errors.New("archive extraction failed")
	ErrNameCollisionExhausted = errors.New("no free repository name")
	ErrRepositoryCreation     = errors.New("repository creation failed")
	ErrFileWrite              = errors.New("file write failed")

	// Upstream errors
	ErrUpstreamRateLimit    = errors.New("upstream rate limit exceeded")
	ErrUpstreamUnauthorized = errors.New("upstream credential rejected")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidState    = errors.New("invalid oauth state")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
