package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-repo-uploader/archive"
	"github.com/jrsteele09/go-repo-uploader/files"
	"github.com/jrsteele09/go-repo-uploader/github"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	"github.com/rs/zerolog/log"
)

// RepositoryWriter is the part of the GitHub API an upload needs
type RepositoryWriter interface {
	RepositoryExists(ctx context.Context, owner, name string) (bool, error)
	CreateRepository(ctx context.Context, req github.CreateRepositoryRequest) (*github.Repository, error)
	WriteFile(ctx context.Context, req github.WriteFileRequest) (*github.Commit, error)
}

// Observer receives upload lifecycle events, typically for metrics
type Observer interface {
	UploadFinished(status State, elapsed time.Duration)
	ArchiveExtracted(entries int, dropped archive.DropStats)
	FileWritten(ok bool)
}

type nopObserver struct{}

func (nopObserver) UploadFinished(State, time.Duration)     {}
func (nopObserver) ArchiveExtracted(int, archive.DropStats) {}
func (nopObserver) FileWritten(bool)                        {}

// FileResult is the outcome of writing one file
type FileResult struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Encoding  string `json:"encoding,omitempty"`
	Success   bool   `json:"success"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Stats are the counters reported to the client
type Stats struct {
	TotalFiles     int   `json:"total_files"`
	UploadedFiles  int   `json:"uploaded_files"`
	FailedFiles    int   `json:"failed_files"`
	DroppedEntries int   `json:"dropped_entries"`
	TotalSize      int64 `json:"total_size"`
	ProcessingTime int64 `json:"processing_time"`
}

// Outcome is the result of a completed upload
type Outcome struct {
	UploadID        string             `json:"upload_id"`
	Repository      github.Repository  `json:"repository"`
	Stats           Stats              `json:"upload_stats"`
	ProjectName     string             `json:"project_name"`
	Renamed         bool               `json:"renamed"`
	Message         string             `json:"message"`
	ReadmeGenerated bool               `json:"readme_generated"`
	Project         files.ProjectStats `json:"project_stats"`
	Files           []FileResult       `json:"files"`
}

// Orchestrator drives an upload from intake to a populated repository
type Orchestrator struct {
	tempDir         string
	maxFileSize     int64
	maxNameAttempts int
	extractor       *archive.Extractor
	materializer    *files.Materializer
	observer        Observer
	nowFunc         func() time.Time
}

type OrchestratorOption func(*Orchestrator)

func WithNowTime(nowFunc func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.nowFunc = nowFunc
	}
}

func WithObserver(observer Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithTempDir overrides the configured directory for archives and extraction
func WithTempDir(dir string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tempDir = dir
	}
}

func NewOrchestrator(cfg config.UploadConfig, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tempDir:         cfg.GetTempDir(),
		maxFileSize:     cfg.GetMaxFileSize(),
		maxNameAttempts: cfg.GetMaxNameAttempts(),
		extractor: archive.NewExtractor(archive.Policy{
			MaxEntries:   cfg.GetMaxArchiveEntries(),
			MaxEntrySize: cfg.GetMaxEntrySize(),
		}),
		materializer: files.NewMaterializer(files.WithMaxFileSize(cfg.GetMaxEntrySize())),
		observer:     nopObserver{},
		nowFunc:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MaxFileSize is the largest archive accepted
func (o *Orchestrator) MaxFileSize() int64 {
	return o.maxFileSize
}

// Run executes one upload. Temporary files are removed on every exit path.
func (o *Orchestrator) Run(ctx context.Context, repos RepositoryWriter, req Request) (outcome *Outcome, err error) {
	started := o.nowFunc()
	uploadID := uuid.NewString()
	t := newTracker(log.With().Str("upload_id", uploadID).Str("project", req.ProjectName).Logger(), o.nowFunc)
	defer func() {
		o.observer.UploadFinished(t.state, o.nowFunc().Sub(started))
	}()

	if err := Validate(req, o.maxFileSize); err != nil {
		return nil, t.fail(err)
	}
	t.advance(StateValidated)

	archivePath, extractDir, err := o.workspace(uploadID)
	if err != nil {
		return nil, t.fail(err)
	}
	defer o.cleanup(t, archivePath, extractDir)

	archiveSize, err := o.persist(req.File, archivePath)
	if err != nil {
		return nil, t.fail(err)
	}
	t.advance(StatePersisted)

	extracted, err := o.extractor.ExtractFile(ctx, archivePath, extractDir)
	if err != nil {
		return nil, t.fail(fmt.Errorf("[Upload] extract: %w", err))
	}
	o.observer.ArchiveExtracted(extracted.Entries, extracted.Dropped)
	t.advance(StateExtracted)

	paths := extracted.Paths()
	entries, failures := o.materializer.Materialize(ctx, extractDir, paths)
	project := files.ComputeStats(entries)
	t.logger.Info().
		Int("files", project.TotalFiles).
		Str("size", files.FormatSize(project.TotalSize)).
		Str("language", project.PrimaryLanguage()).
		Int("unreadable", len(failures)).
		Msg("archive materialized")
	t.advance(StateMaterialized)

	name, err := ResolveName(ctx, repos, req.Owner, req.ProjectName, o.maxNameAttempts)
	if err != nil {
		return nil, t.fail(err)
	}
	renamed := name != req.ProjectName
	t.advance(StateNameResolved)

	repo, err := repos.CreateRepository(ctx, github.CreateRepositoryRequest{
		Name:        name,
		Description: req.Description,
		Private:     req.Private,
		Topics:      req.Topics,
	})
	if err != nil {
		return nil, t.fail(err)
	}
	t.advance(StateRepositoryCreated)

	owner := repo.Owner.Login
	if owner == "" {
		owner = req.Owner
	}
	results, uploaded, err := o.writeFiles(ctx, t, repos, owner, repo.Name, entries, failures)
	if err != nil {
		return nil, t.fail(err)
	}
	t.advance(StateFilesWritten)

	readmeGenerated := false
	if !HasReadme(paths) {
		readmeGenerated = o.writeReadme(ctx, t, repos, owner, repo.Name, req)
	}
	t.advance(StateReadmeEnsured)

	outcome = &Outcome{
		UploadID:        uploadID,
		Repository:      *repo,
		ProjectName:     repo.Name,
		Renamed:         renamed,
		Message:         outcomeMessage(req.ProjectName, repo.Name, renamed),
		ReadmeGenerated: readmeGenerated,
		Project:         project,
		Files:           results,
		Stats: Stats{
			TotalFiles:     len(extracted.Files),
			UploadedFiles:  uploaded,
			FailedFiles:    len(results) - uploaded,
			DroppedEntries: extracted.Dropped.Total(),
			TotalSize:      archiveSize,
			ProcessingTime: o.nowFunc().Sub(started).Milliseconds(),
		},
	}
	t.advance(StateCompleted)
	t.logger.Info().
		Str("repository", repo.FullName).
		Int("uploaded", uploaded).
		Int("total", len(extracted.Files)).
		Msg("upload completed")
	return outcome, nil
}

func outcomeMessage(requested, final string, renamed bool) string {
	if renamed {
		return fmt.Sprintf("Repository name %q was already taken, the project was uploaded as %q", requested, final)
	}
	return "Project uploaded successfully"
}

func (o *Orchestrator) workspace(uploadID string) (string, string, error) {
	if err := os.MkdirAll(o.tempDir, 0o755); err != nil {
		return "", "", fmt.Errorf("[Upload] create temp dir: %w", err)
	}
	archivePath := filepath.Join(o.tempDir, "upload_"+uploadID+".tar.gz")
	extractDir := filepath.Join(o.tempDir, "extract_"+uploadID)
	return archivePath, extractDir, nil
}

// persist copies the archive to disk, enforcing the size limit on the bytes
// actually received rather than the declared size.
func (o *Orchestrator) persist(src io.Reader, archivePath string) (int64, error) {
	out, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("[Upload] create archive file: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(src, o.maxFileSize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("[Upload] persist archive: %w", err)
	}
	if n > o.maxFileSize {
		return 0, fileTooLarge(o.maxFileSize)
	}
	return n, nil
}

func (o *Orchestrator) cleanup(t *tracker, archivePath, extractDir string) {
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn().Err(err).Str("path", archivePath).Msg("failed to remove temp archive")
	}
	if err := os.RemoveAll(extractDir); err != nil {
		t.logger.Warn().Err(err).Str("path", extractDir).Msg("failed to remove extraction dir")
	}
}

// writeFiles commits entries one at a time in extraction order. A failed file
// is recorded and skipped. Only cancellation stops the batch.
func (o *Orchestrator) writeFiles(ctx context.Context, t *tracker, repos RepositoryWriter, owner, name string, entries []files.FileEntry, failures []files.Failure) ([]FileResult, int, error) {
	results := make([]FileResult, 0, len(entries)+len(failures))
	uploaded := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		result := FileResult{Path: entry.Path, Size: entry.Size, Encoding: string(entry.Encoding)}
		content, err := entry.Bytes()
		if err == nil {
			var commit *github.Commit
			commit, err = repos.WriteFile(ctx, github.WriteFileRequest{
				Owner:   owner,
				Repo:    name,
				Path:    entry.Path,
				Message: "Add " + entry.Path,
				Content: content,
			})
			if err == nil {
				result.Success = true
				result.CommitSHA = commit.SHA
				uploaded++
			}
		}
		if err != nil {
			t.logger.Warn().Err(err).Str("path", entry.Path).Msg("failed to write file")
			result.Error = err.Error()
		}
		o.observer.FileWritten(result.Success)
		results = append(results, result)
	}

	for _, f := range failures {
		results = append(results, FileResult{Path: f.Path, Error: f.Err.Error()})
	}
	t.logger.Info().Int("uploaded", uploaded).Int("attempted", len(entries)).Msg("files written")
	return results, uploaded, nil
}

func (o *Orchestrator) writeReadme(ctx context.Context, t *tracker, repos RepositoryWriter, owner, name string, req Request) bool {
	content, err := RenderReadme(ReadmeData{
		ProjectName: name,
		Description: req.Description,
		Topics:      req.Topics,
		Owner:       owner,
	}, o.nowFunc())
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to render README")
		return false
	}
	if _, err := repos.WriteFile(ctx, github.WriteFileRequest{
		Owner:   owner,
		Repo:    name,
		Path:    ReadmePath,
		Message: ReadmeMessage,
		Content: content,
	}); err != nil {
		t.logger.Warn().Err(err).Msg("failed to write generated README")
		return false
	}
	t.logger.Info().Msg("generated README written")
	return true
}
