package files

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Encoding tells the consumer how FileEntry.Content must be decoded
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingBase64 Encoding = "base64"
)

// FileEntry is a file loaded from disk and ready for transport
type FileEntry struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Encoding Encoding `json:"encoding"`
	Size     int64    `json:"size"`
}

// Bytes decodes the content back to the original bytes
func (f FileEntry) Bytes() ([]byte, error) {
	if f.Encoding == EncodingBase64 {
		return base64.StdEncoding.DecodeString(f.Content)
	}
	return []byte(f.Content), nil
}

// Failure records a file that could not be materialized
type Failure struct {
	Path string
	Err  error
}

// Materializer reads extracted files and decides their transport encoding
type Materializer struct {
	maxFileSize int64
	readFile    func(string) ([]byte, error)
}

// MaterializerOption defines a function type to modify the Materializer.
type MaterializerOption func(*Materializer)

// WithMaxFileSize drops files larger than max bytes. Zero disables the check.
func WithMaxFileSize(max int64) MaterializerOption {
	return func(m *Materializer) {
		m.maxFileSize = max
	}
}

// WithReadFile replaces the function used to read file contents
func WithReadFile(readFile func(string) ([]byte, error)) MaterializerOption {
	return func(m *Materializer) {
		m.readFile = readFile
	}
}

func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{readFile: os.ReadFile}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize loads every path relative to baseDir. Files that cannot be read
// are logged and reported as failures without stopping the batch. Output order
// follows the input order.
func (m *Materializer) Materialize(ctx context.Context, baseDir string, paths []string) ([]FileEntry, []Failure) {
	entries := make([]FileEntry, 0, len(paths))
	var failures []Failure

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Path: p, Err: err})
			continue
		}
		entry, err := m.load(baseDir, p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("skipping unreadable file")
			failures = append(failures, Failure{Path: p, Err: err})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, failures
}

func (m *Materializer) load(baseDir, p string) (FileEntry, error) {
	fullPath, err := ResolveWithin(baseDir, p)
	if err != nil {
		return FileEntry{}, err
	}
	if m.maxFileSize > 0 {
		info, err := os.Stat(fullPath)
		if err == nil && info.Size() > m.maxFileSize {
			return FileEntry{}, fmt.Errorf("%s is %s, over the %s limit", p, FormatSize(info.Size()), FormatSize(m.maxFileSize))
		}
	}
	content, err := m.readFile(fullPath)
	if err != nil {
		return FileEntry{}, fmt.Errorf("[Materialize] read %s: %w", p, err)
	}
	return Encode(p, content), nil
}

// Encode picks the transport encoding for content. Anything classified as
// binary, or text that is not valid UTF-8, is base64 encoded.
func Encode(p string, content []byte) FileEntry {
	entry := FileEntry{Path: p, Size: int64(len(content))}
	if IsBinary(p, content) || !utf8.Valid(content) {
		entry.Encoding = EncodingBase64
		entry.Content = base64.StdEncoding.EncodeToString(content)
		return entry
	}
	entry.Encoding = EncodingUTF8
	entry.Content = string(content)
	return entry
}
