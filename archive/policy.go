package archive

import (
	"path"
	"regexp"
	"strings"
)

const (
	DefaultMaxEntries   = 10000
	DefaultMaxEntrySize = 50 * 1024 * 1024
)

// Policy bounds what an extraction accepts
type Policy struct {
	// MaxEntries caps the number of accepted files
	MaxEntries int
	// MaxEntrySize drops any single entry larger than this many bytes
	MaxEntrySize int64
}

// DefaultPolicy returns the stock limits
func DefaultPolicy() Policy {
	return Policy{
		MaxEntries:   DefaultMaxEntries,
		MaxEntrySize: DefaultMaxEntrySize,
	}
}

var excludedDirs = map[string]struct{}{
	"node_modules": {}, ".git": {}, ".svn": {}, ".hg": {},
	".vscode": {}, ".idea": {},
	"dist": {}, "build": {}, "target": {}, "coverage": {}, ".nyc_output": {},
	".cache": {}, ".next": {}, ".nuxt": {}, ".vuepress": {},
	"vendor": {}, "bower_components": {},
	"__pycache__": {}, ".pytest_cache": {}, ".mypy_cache": {}, ".tox": {}, ".eggs": {},
	".gradle": {},
}

var excludedFiles = map[string]struct{}{
	".ds_store": {},
	"thumbs.db": {},
}

var conventionalNames = map[string]struct{}{
	"readme": {}, "license": {}, "changelog": {}, "makefile": {}, "dockerfile": {},
	"gemfile": {}, "rakefile": {}, "procfile": {}, "vagrantfile": {},
}

var allowedExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".rst": {}, ".log": {},
	".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".vue": {}, ".svelte": {},
	".py": {}, ".rb": {}, ".php": {}, ".java": {}, ".c": {}, ".cpp": {}, ".h": {}, ".hpp": {},
	".cs": {}, ".go": {}, ".rs": {}, ".swift": {}, ".kt": {}, ".scala": {},
	".html": {}, ".htm": {}, ".css": {}, ".scss": {}, ".sass": {}, ".less": {},
	".json": {}, ".xml": {}, ".yaml": {}, ".yml": {}, ".toml": {}, ".ini": {},
	".sql": {}, ".sh": {}, ".bat": {}, ".ps1": {}, ".dockerfile": {},
	".gitignore": {}, ".gitattributes": {}, ".editorconfig": {},
	".eslintrc": {}, ".prettierrc": {}, ".babelrc": {},
	".env": {},
	".pdf": {}, ".doc": {}, ".docx": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".ico": {},
	".license": {}, ".changelog": {}, ".makefile": {},
}

var configPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\..*rc$`),
	regexp.MustCompile(`^\..*ignore$`),
	regexp.MustCompile(`^\.env`),
	regexp.MustCompile(`package\.json$`),
	regexp.MustCompile(`composer\.json$`),
	regexp.MustCompile(`requirements\.txt$`),
	regexp.MustCompile(`yarn\.lock$`),
	regexp.MustCompile(`package-lock\.json$`),
}

// IsExcluded reports whether a normalized path lies in a never-uploaded
// directory or is an OS artifact. For files only the directory segments are
// matched against the directory deny-list.
func IsExcluded(cleanPath string, isDir bool) bool {
	segments := strings.Split(cleanPath, "/")
	dirs := segments
	if !isDir {
		dirs = segments[:len(segments)-1]
		if _, ok := excludedFiles[strings.ToLower(segments[len(segments)-1])]; ok {
			return true
		}
	}
	for _, segment := range dirs {
		if _, ok := excludedDirs[segment]; ok {
			return true
		}
	}
	return false
}

// IsAllowedFile reports whether a file's name or extension is on the upload allow-list
func IsAllowedFile(cleanPath string) bool {
	name := strings.ToLower(path.Base(cleanPath))
	if _, ok := conventionalNames[name]; ok {
		return true
	}
	if ext := path.Ext(name); ext != "" {
		if _, ok := allowedExtensions[ext]; ok {
			return true
		}
	}
	for _, pattern := range configPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}
