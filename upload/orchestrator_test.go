package upload_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-repo-uploader/archive"
	"github.com/jrsteele09/go-repo-uploader/github"
	fakegithub "github.com/jrsteele09/go-repo-uploader/github/repofake"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/upload"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type testUploadConfig struct {
	tempDir     string
	maxFileSize int64
	maxAttempts int
}

func (c testUploadConfig) GetMaxFileSize() int64     { return c.maxFileSize }
func (c testUploadConfig) GetTempDir() string        { return c.tempDir }
func (c testUploadConfig) GetMaxArchiveEntries() int { return archive.DefaultMaxEntries }
func (c testUploadConfig) GetMaxEntrySize() int64    { return archive.DefaultMaxEntrySize }
func (c testUploadConfig) GetMaxNameAttempts() int   { return c.maxAttempts }

type countingObserver struct {
	mu       sync.Mutex
	finished []upload.State
	written  int
	failed   int
	dropped  int
}

func (o *countingObserver) UploadFinished(status upload.State, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, status)
}

func (o *countingObserver) ArchiveExtracted(_ int, dropped archive.DropStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped += dropped.Total()
}

func (o *countingObserver) FileWritten(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.written++
	} else {
		o.failed++
	}
}

type testFixture struct {
	tempDir      string
	configDir    string
	github       *fakegithub.FakeGitHub
	observer     *countingObserver
	orchestrator *upload.Orchestrator
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	tempDir := t.TempDir()
	observer := &countingObserver{}
	now := func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	cfg := testUploadConfig{tempDir: filepath.Join(t.TempDir(), "unused"), maxFileSize: 1 << 20, maxAttempts: upload.DefaultMaxNameAttempts}
	return &testFixture{
		tempDir:      tempDir,
		configDir:    cfg.tempDir,
		github:       fakegithub.NewFakeGitHub(github.User{ID: 1, Login: "octocat"}),
		observer:     observer,
		orchestrator: upload.NewOrchestrator(cfg, upload.WithNowTime(now), upload.WithObserver(observer), upload.WithTempDir(tempDir)),
	}
}

func (f *testFixture) requireTempDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	require.Empty(t, entries, "temporary files must be removed")
}

type entry struct {
	name string
	body string
	dir  bool
}

func buildArchive(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(e.body))}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func request(name string, data []byte) upload.Request {
	return upload.Request{
		Owner:       "octocat",
		File:        bytes.NewReader(data),
		FileName:    name + ".tar.gz",
		FileSize:    int64(len(data)),
		ProjectName: name,
	}
}

func TestValidate(t *testing.T) {
	valid := upload.Request{File: strings.NewReader("x"), FileName: "p.tar.gz", FileSize: 1, ProjectName: "my-project_1.0"}
	require.NoError(t, upload.Validate(valid, 10))

	tests := []struct {
		name   string
		mutate func(r *upload.Request)
		code   apperrors.Code
	}{
		{"no file", func(r *upload.Request) { r.File = nil }, apperrors.CodeNoFile},
		{"empty name", func(r *upload.Request) { r.ProjectName = "" }, apperrors.CodeInvalidProjectName},
		{"leading dot", func(r *upload.Request) { r.ProjectName = ".hidden" }, apperrors.CodeInvalidProjectName},
		{"trailing hyphen", func(r *upload.Request) { r.ProjectName = "name-" }, apperrors.CodeInvalidProjectName},
		{"space", func(r *upload.Request) { r.ProjectName = "my project" }, apperrors.CodeInvalidProjectName},
		{"too long", func(r *upload.Request) { r.ProjectName = strings.Repeat("a", 101) }, apperrors.CodeInvalidProjectName},
		{"zip", func(r *upload.Request) { r.FileName = "p.zip" }, apperrors.CodeInvalidFileType},
		{"plain tar", func(r *upload.Request) { r.FileName = "p.tar" }, apperrors.CodeInvalidFileType},
		{"too large", func(r *upload.Request) { r.FileSize = 11 }, apperrors.CodeFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := upload.Validate(req, 10)
			require.Error(t, err)
			require.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}

	t.Run("archive suffix is case insensitive", func(t *testing.T) {
		req := valid
		req.FileName = "BACKUP.TGZ"
		require.NoError(t, upload.Validate(req, 10))
	})

	t.Run("max length name", func(t *testing.T) {
		require.True(t, upload.ValidProjectName(strings.Repeat("a", 100)))
	})
}

func TestResolveName(t *testing.T) {
	ctx := context.Background()

	t.Run("collision suffix", func(t *testing.T) {
		f := setupTestFixture(t)
		f.github.AddRepository("foo")
		f.github.AddRepository("foo-2")

		name, err := upload.ResolveName(ctx, f.github, "octocat", "foo", 100)
		require.NoError(t, err)
		require.Equal(t, "foo-3", name)
	})

	t.Run("exhausted", func(t *testing.T) {
		f := setupTestFixture(t)
		f.github.AddRepository("foo")
		f.github.AddRepository("foo-2")
		f.github.AddRepository("foo-3")

		_, err := upload.ResolveName(ctx, f.github, "octocat", "foo", 3)
		require.ErrorIs(t, err, apperrors.ErrNameCollisionExhausted)
		require.Equal(t, apperrors.CodeNameCollisionExhausted, apperrors.CodeOf(err))
	})

	t.Run("suffix keeps names within the length limit", func(t *testing.T) {
		f := setupTestFixture(t)
		long := strings.Repeat("a", 100)
		f.github.AddRepository(long)

		name, err := upload.ResolveName(ctx, f.github, "octocat", long, 100)
		require.NoError(t, err)
		require.Equal(t, strings.Repeat("a", 98)+"-2", name)
		require.True(t, upload.ValidProjectName(name))
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.github.ExistsErr = apperrors.ErrUpstreamRateLimit
		_, err := upload.ResolveName(ctx, f.github, "octocat", "foo", 100)
		require.ErrorIs(t, err, apperrors.ErrUpstreamRateLimit)
	})
}

func TestRunScenario(t *testing.T) {
	f := setupTestFixture(t)
	data := buildArchive(t,
		entry{name: "project/", dir: true},
		entry{name: "project/src/", dir: true},
		entry{name: "project/src/a.js", body: "console.log('a')\n"},
		entry{name: "project/README.md", body: "# project\n"},
		entry{name: "project/node_modules/x/y.js", body: "module.exports = 1\n"},
	)

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("demo", data))
	require.NoError(t, err)
	require.Equal(t, "demo", outcome.ProjectName)
	require.False(t, outcome.Renamed)
	require.False(t, outcome.ReadmeGenerated)
	require.Equal(t, 2, outcome.Stats.TotalFiles)
	require.Equal(t, 2, outcome.Stats.UploadedFiles)
	require.Equal(t, 0, outcome.Stats.FailedFiles)
	require.Equal(t, int64(len(data)), outcome.Stats.TotalSize)
	require.NotEmpty(t, outcome.UploadID)

	require.Equal(t, []string{"src/a.js", "README.md"}, f.github.WrittenPaths("octocat", "demo"))
	writes := f.github.Writes("octocat", "demo")
	require.Equal(t, "Add src/a.js", writes[0].Message)
	require.Equal(t, "console.log('a')\n", string(writes[0].Content))

	f.requireTempDirEmpty(t)
	_, err = os.Stat(f.configDir)
	require.True(t, os.IsNotExist(err), "the temp dir option overrides the configured one")
	require.Equal(t, []upload.State{upload.StateCompleted}, f.observer.finished)
	require.Equal(t, 2, f.observer.written)
	require.Equal(t, 1, f.observer.dropped)
}

func TestRunArchiveBuiltInsideProject(t *testing.T) {
	f := setupTestFixture(t)
	data := buildArchive(t,
		entry{name: "./", dir: true},
		entry{name: "./src/", dir: true},
		entry{name: "./src/a.js", body: "a()"},
		entry{name: "./src/README.md", body: "nested"},
		entry{name: "./README.md", body: "top"},
	)

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("inside", data))
	require.NoError(t, err)
	require.False(t, outcome.ReadmeGenerated)
	require.Equal(t, []string{"src/a.js", "src/README.md", "README.md"}, f.github.WrittenPaths("octocat", "inside"))
	f.requireTempDirEmpty(t)
}

func TestRunGeneratesReadme(t *testing.T) {
	f := setupTestFixture(t)
	data := buildArchive(t, entry{name: "main.go", body: "package main\n"})
	req := request("tool", data)
	req.Description = "A small tool"
	req.Topics = []string{"go", "cli"}

	outcome, err := f.orchestrator.Run(context.Background(), f.github, req)
	require.NoError(t, err)
	require.True(t, outcome.ReadmeGenerated)
	require.Equal(t, 1, outcome.Stats.UploadedFiles, "the generated README is not an uploaded file")

	writes := f.github.Writes("octocat", "tool")
	require.Len(t, writes, 2)
	readme := writes[1]
	require.Equal(t, upload.ReadmePath, readme.Path)
	require.Equal(t, upload.ReadmeMessage, readme.Message)
	require.Contains(t, string(readme.Content), "# tool\n\nA small tool\n")
	require.Contains(t, string(readme.Content), "## Topics\n\n- go\n- cli\n")
	require.Contains(t, string(readme.Content), "git clone https://github.com/octocat/tool.git")
	require.Contains(t, string(readme.Content), "2025-06-01")

	repo := f.github.Repository("octocat", "tool")
	require.Equal(t, []string{"go", "cli"}, repo.Topics)
}

func TestRunRenamesOnCollision(t *testing.T) {
	f := setupTestFixture(t)
	f.github.AddRepository("foo")
	f.github.AddRepository("foo-2")

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("foo", buildArchive(t, entry{name: "a.txt", body: "a"})))
	require.NoError(t, err)
	require.Equal(t, "foo-3", outcome.ProjectName)
	require.True(t, outcome.Renamed)
	require.Contains(t, outcome.Message, `"foo-3"`)
	require.Equal(t, []string{"a.txt", "README.md"}, f.github.WrittenPaths("octocat", "foo-3"))
}

func TestRunEmptyArchive(t *testing.T) {
	f := setupTestFixture(t)
	data := buildArchive(t, entry{name: "empty/", dir: true}, entry{name: "empty/sub/", dir: true})

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("empty", data))
	require.NoError(t, err)
	require.Equal(t, 0, outcome.Stats.TotalFiles)
	require.Equal(t, 0, outcome.Stats.UploadedFiles)
	require.Empty(t, outcome.Files)
	require.True(t, outcome.ReadmeGenerated)
	f.requireTempDirEmpty(t)
}

func TestRunBinaryRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	png := string([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0xff, 0xfe})
	data := buildArchive(t, entry{name: "logo.png", body: png}, entry{name: "README", body: "hi"})

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("assets", data))
	require.NoError(t, err)
	require.Equal(t, "base64", outcome.Files[0].Encoding)
	require.Equal(t, []byte(png), f.github.Writes("octocat", "assets")[0].Content)
	require.False(t, outcome.ReadmeGenerated)
}

func TestRunPartialWriteFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.github.WriteErrors["b.txt"] = errors.New("conflict")
	data := buildArchive(t,
		entry{name: "a.txt", body: "a"},
		entry{name: "b.txt", body: "b"},
		entry{name: "c.txt", body: "c"},
	)

	outcome, err := f.orchestrator.Run(context.Background(), f.github, request("partial", data))
	require.NoError(t, err)
	require.Equal(t, 3, outcome.Stats.TotalFiles)
	require.Equal(t, 2, outcome.Stats.UploadedFiles)
	require.Equal(t, 1, outcome.Stats.FailedFiles)
	require.False(t, outcome.Files[1].Success)
	require.Contains(t, outcome.Files[1].Error, "conflict")
	require.Equal(t, []string{"a.txt", "c.txt", "README.md"}, f.github.WrittenPaths("octocat", "partial"))
	require.Equal(t, 1, f.observer.failed)
}

func TestRunFailures(t *testing.T) {
	t.Run("corrupt archive", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.orchestrator.Run(context.Background(), f.github, request("bad", []byte("not a gzip stream")))
		require.ErrorIs(t, err, apperrors.ErrArchiveExtraction)
		require.Equal(t, apperrors.CodeArchiveExtraction, apperrors.CodeOf(err))
		require.Nil(t, f.github.Repository("octocat", "bad"), "no repository is created for a bad archive")
		f.requireTempDirEmpty(t)
		require.Equal(t, []upload.State{upload.StateFailed}, f.observer.finished)
	})

	t.Run("repository creation", func(t *testing.T) {
		f := setupTestFixture(t)
		f.github.CreateErr = errors.New("forbidden")
		_, err := f.orchestrator.Run(context.Background(), f.github, request("demo", buildArchive(t, entry{name: "a.txt", body: "a"})))
		require.ErrorIs(t, err, apperrors.ErrRepositoryCreation)
		require.Equal(t, apperrors.CodeRepositoryCreation, apperrors.CodeOf(err))
		f.requireTempDirEmpty(t)
	})

	t.Run("received bytes over the limit", func(t *testing.T) {
		f := setupTestFixture(t)
		req := request("big", bytes.Repeat([]byte("x"), (1<<20)+1))
		req.FileSize = 10
		_, err := f.orchestrator.Run(context.Background(), f.github, req)
		require.ErrorIs(t, err, apperrors.ErrFileTooLarge)
		f.requireTempDirEmpty(t)
	})

	t.Run("validation happens before disk", func(t *testing.T) {
		f := setupTestFixture(t)
		req := request("ok", []byte("x"))
		req.FileName = "ok.zip"
		_, err := f.orchestrator.Run(context.Background(), f.github, req)
		require.ErrorIs(t, err, apperrors.ErrInvalidFileType)
		f.requireTempDirEmpty(t)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.orchestrator.Run(ctx, f.github, request("demo", buildArchive(t, entry{name: "a.txt", body: "a"})))
		require.ErrorIs(t, err, context.Canceled)
		f.requireTempDirEmpty(t)
	})
}

func TestHasReadme(t *testing.T) {
	require.True(t, upload.HasReadme([]string{"src/a.go", "ReadMe.MD"}))
	require.True(t, upload.HasReadme([]string{"README"}))
	require.True(t, upload.HasReadme([]string{"readme.txt"}))
	require.False(t, upload.HasReadme([]string{"docs/README.md"}))
	require.False(t, upload.HasReadme([]string{"README.rst"}))
}

var _ config.UploadConfig = testUploadConfig{}
