package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-repo-uploader/files"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// ExtractedEntry is one file that survived extraction
type ExtractedEntry struct {
	RelativePath string `json:"relativePath"`
	Size         int64  `json:"size"`
	IsBinary     bool   `json:"isBinary"`
}

// Result is the ordered outcome of an extraction
type Result struct {
	Files   []ExtractedEntry
	Root    string
	Entries int
	Dropped DropStats
}

// Paths returns the relative paths in extraction order
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.RelativePath
	}
	return paths
}

// Extractor unpacks untrusted tar.gz archives under a Policy
type Extractor struct {
	policy Policy
}

func NewExtractor(policy Policy) *Extractor {
	if policy.MaxEntries <= 0 {
		policy.MaxEntries = DefaultMaxEntries
	}
	if policy.MaxEntrySize <= 0 {
		policy.MaxEntrySize = DefaultMaxEntrySize
	}
	return &Extractor{policy: policy}
}

// ExtractFile extracts the archive at archivePath into dest
func (e *Extractor) ExtractFile(ctx context.Context, archivePath, dest string) (*Result, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("[ExtractFile] open archive: %w", err)
	}
	defer f.Close()
	return e.Extract(ctx, f, dest)
}

// Extract streams a gzip compressed tar from r into dest. Entries failing the
// policy are dropped and counted, never reported as errors. Only a corrupt
// stream or a destination that cannot be created fails the extraction.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, dest string) (*Result, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("[Extract] create destination: %w", err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("[Extract] resolve destination: %w", err)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	defer gz.Close()

	run := &extraction{
		policy: e.policy,
		dest:   absDest,
		seen:   make(map[string]int),
		result: &Result{Files: make([]ExtractedEntry, 0), Dropped: make(DropStats)},
	}

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Err: err}
		}
		if err := run.entry(hdr, tr); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("root", run.result.Root).
		Int("entries", run.result.Entries).
		Int("files", len(run.result.Files)).
		Int("dropped", run.result.Dropped.Total()).
		Msg("archive extracted")
	return run.result, nil
}

type extraction struct {
	policy      Policy
	dest        string
	rootDecided bool
	accepted    int
	seen        map[string]int
	result      *Result
}

func (x *extraction) drop(name string, reason DropReason) {
	x.result.Dropped[reason]++
	log.Debug().Str("entry", name).Str("reason", string(reason)).Msg("archive entry dropped")
}

// entry applies the single filter predicate to hdr and materializes it when accepted
func (x *extraction) entry(hdr *tar.Header, body io.Reader) error {
	x.result.Entries++
	isDir := hdr.Typeflag == tar.TypeDir
	isFile := hdr.Typeflag == tar.TypeReg
	cleaned := files.NormalizePath(hdr.Name)

	x.detectRoot(cleaned, isDir, isFile)

	if !isDir && !isFile {
		x.drop(hdr.Name, DropUnsupportedType)
		return nil
	}
	relative := x.stripRoot(cleaned)
	if reason, ok := x.rejects(hdr, relative, isDir); !ok {
		x.drop(hdr.Name, reason)
		return nil
	}

	if isDir {
		if relative == "" {
			return nil
		}
		target, err := files.ResolveWithin(x.dest, relative)
		if err != nil {
			x.drop(hdr.Name, DropUnsafePath)
			return nil
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			x.drop(hdr.Name, DropWriteFailed)
		}
		return nil
	}

	if relative == "" || relative == x.result.Root {
		x.drop(hdr.Name, DropRootOnly)
		return nil
	}
	target, err := files.ResolveWithin(x.dest, relative)
	if err != nil {
		x.drop(hdr.Name, DropUnsafePath)
		return nil
	}

	size, sample, err := writeEntry(target, body)
	if err != nil {
		var readErr *sourceReadError
		if errors.As(err, &readErr) {
			return &ExtractionError{Err: readErr.err}
		}
		log.Warn().Err(err).Str("entry", hdr.Name).Msg("failed to write archive entry")
		x.drop(hdr.Name, DropWriteFailed)
		return nil
	}

	entry := ExtractedEntry{RelativePath: relative, Size: size, IsBinary: files.IsBinary(relative, sample)}
	if i, dup := x.seen[relative]; dup {
		x.result.Files[i] = entry
		return nil
	}
	x.accepted++
	x.seen[relative] = len(x.result.Files)
	x.result.Files = append(x.result.Files, entry)
	return nil
}

// detectRoot records the top segment of the first directory entry, provided
// no file has been seen before it. A first directory of "./" means the archive
// was built from inside the project, so there is no root to strip.
func (x *extraction) detectRoot(cleaned string, isDir, isFile bool) {
	if x.rootDecided {
		return
	}
	if isFile {
		x.rootDecided = true
		return
	}
	if isDir && cleaned == "" {
		x.rootDecided = true
		return
	}
	if !isDir || !files.IsSafePath(cleaned) {
		return
	}
	x.result.Root = strings.SplitN(cleaned, "/", 2)[0]
	x.rootDecided = true
}

// rejects evaluates the policy against the root-stripped path. Exclusion is
// matched below the detected root so a project folder named e.g. "build" is
// not excluded wholesale.
func (x *extraction) rejects(hdr *tar.Header, relative string, isDir bool) (DropReason, bool) {
	if relative != "" && IsExcluded(relative, isDir) {
		return DropExcluded, false
	}
	if !isDir && x.accepted >= x.policy.MaxEntries {
		return DropCountCap, false
	}
	if hdr.Size > x.policy.MaxEntrySize {
		return DropTooLarge, false
	}
	if _, err := files.CleanPath(hdr.Name); err != nil {
		return DropUnsafePath, false
	}
	if !isDir && relative != "" && !IsAllowedFile(relative) {
		return DropNotAllowed, false
	}
	return "", true
}

func (x *extraction) stripRoot(cleaned string) string {
	root := x.result.Root
	if root != "" && strings.HasPrefix(cleaned, root+"/") {
		return strings.TrimPrefix(cleaned, root+"/")
	}
	if root != "" && cleaned == root {
		return ""
	}
	return cleaned
}

type sourceReadError struct {
	err error
}

func (e *sourceReadError) Error() string { return e.err.Error() }

type trackingReader struct {
	r io.Reader
}

func (t trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &sourceReadError{err: err}
	}
	return n, err
}

// writeEntry copies body to target and returns the byte count and the
// leading sample used for binary detection.
func writeEntry(target string, body io.Reader) (int64, []byte, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, nil, err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, nil, err
	}

	src := trackingReader{r: body}
	sample := make([]byte, files.SampleSize)
	n, err := io.ReadFull(src, sample)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		out.Close()
		return 0, nil, err
	}
	sample = sample[:n]

	if _, err := out.Write(sample); err != nil {
		out.Close()
		return 0, nil, err
	}
	rest, err := io.Copy(out, src)
	if err != nil {
		out.Close()
		return 0, nil, err
	}
	if err := out.Close(); err != nil {
		return 0, nil, err
	}
	return int64(n) + rest, sample, nil
}
