package archive

import (
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// ExtractionError reports a corrupt or unreadable gzip/tar stream
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return apperrors.ErrArchiveExtraction.Error() + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package-wide archive extraction sentinel
func (e *ExtractionError) Is(target error) bool {
	return target == apperrors.ErrArchiveExtraction
}
