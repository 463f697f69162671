package upload

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-repo-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

const MaxProjectNameLength = 100

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var archiveSuffixes = []string{".tar.gz", ".tgz"}

// Request is one upload as received from the client
type Request struct {
	// Owner is the login of the authenticated user
	Owner       string
	File        io.Reader
	FileName    string
	FileSize    int64
	ProjectName string
	Description string
	Private     bool
	Topics      []string
}

// ValidProjectName follows GitHub's repository naming rules
func ValidProjectName(name string) bool {
	if len(name) == 0 || len(name) > MaxProjectNameLength {
		return false
	}
	if !projectNamePattern.MatchString(name) {
		return false
	}
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "-") &&
		!strings.HasSuffix(name, ".") && !strings.HasSuffix(name, "-")
}

// ValidArchiveName accepts .tar.gz and .tgz in any case
func ValidArchiveName(fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Validate is the intake gate, run before anything touches disk
func Validate(req Request, maxFileSize int64) error {
	if req.File == nil {
		return apperrors.New(apperrors.CodeNoFile, "No file was selected", apperrors.ErrNoFile)
	}
	if !ValidProjectName(req.ProjectName) {
		return apperrors.New(apperrors.CodeInvalidProjectName,
			"Invalid project name. Use letters, digits, hyphens, underscores and dots only",
			fmt.Errorf("%w: %q", apperrors.ErrInvalidProjectName, req.ProjectName))
	}
	if !ValidArchiveName(req.FileName) {
		return apperrors.New(apperrors.CodeInvalidFileType,
			"Unsupported file type. Select a .tar.gz or .tgz file",
			fmt.Errorf("%w: %q", apperrors.ErrInvalidFileType, req.FileName))
	}
	if req.FileSize > maxFileSize {
		return fileTooLarge(maxFileSize)
	}
	return nil
}

func fileTooLarge(maxFileSize int64) error {
	return apperrors.New(apperrors.CodeFileTooLarge,
		fmt.Sprintf("File is too large. Select a file of %dMB or less", maxFileSize/config.MB),
		apperrors.ErrFileTooLarge)
}
