package files

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
)

// ErrUnsafePath is returned for paths that could escape a destination
// directory or cannot be represented on common filesystems.
var ErrUnsafePath = fmt.Errorf("unsafe path")

var reservedDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

const illegalNameChars = `<>:"|?*`

// NormalizePath converts an archive member name to a cleaned, forward-slash,
// relative path. Backslashes are treated as separators.
func NormalizePath(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" {
		return ""
	}
	cleaned := path.Clean(name)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// CleanPath normalizes name and rejects it if it is absolute, traverses to a
// parent, contains NUL or control characters, consists only of dots, uses a
// reserved device name, or contains characters illegal on Windows.
func CleanPath(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", apperrors.Wrapf(ErrUnsafePath, "%q contains NUL", name)
	}
	cleaned := NormalizePath(name)
	if cleaned == "" {
		return "", apperrors.Wrapf(ErrUnsafePath, "%q is empty", name)
	}
	if strings.HasPrefix(cleaned, "/") || filepath.IsAbs(name) || hasDriveLetter(cleaned) {
		return "", apperrors.Wrapf(ErrUnsafePath, "%q is absolute", name)
	}

	for _, segment := range strings.Split(cleaned, "/") {
		if err := checkSegment(segment); err != nil {
			return "", apperrors.Wrapf(err, "%q", name)
		}
	}
	return cleaned, nil
}

// IsSafePath reports whether CleanPath accepts name
func IsSafePath(name string) bool {
	_, err := CleanPath(name)
	return err == nil
}

// ResolveWithin joins a relative path onto baseDir and verifies the result
// stays inside baseDir.
func ResolveWithin(baseDir, relative string) (string, error) {
	cleaned, err := CleanPath(relative)
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("[ResolveWithin] %w", err)
	}
	target := filepath.Join(base, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.Wrapf(ErrUnsafePath, "%q escapes %q", relative, baseDir)
	}
	return target, nil
}

func checkSegment(segment string) error {
	if segment == "" || strings.Trim(segment, ".") == "" {
		return apperrors.Wrapf(ErrUnsafePath, "dot-only segment")
	}
	for _, r := range segment {
		if r < 0x20 || r == 0x7f {
			return apperrors.Wrapf(ErrUnsafePath, "control character")
		}
	}
	if strings.ContainsAny(segment, illegalNameChars) {
		return apperrors.Wrapf(ErrUnsafePath, "illegal character")
	}
	stem := segment
	if i := strings.IndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	if _, reserved := reservedDeviceNames[strings.ToUpper(strings.TrimRight(stem, " "))]; reserved {
		return apperrors.Wrapf(ErrUnsafePath, "reserved device name")
	}
	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
