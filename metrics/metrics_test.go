package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-repo-uploader/archive"
	"github.com/jrsteele09/go-repo-uploader/github"
	"github.com/jrsteele09/go-repo-uploader/metrics"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/jrsteele09/go-repo-uploader/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var (
	_ upload.Observer   = (*metrics.Prom)(nil)
	_ sessions.Observer = (*metrics.Prom)(nil)
	_ github.Observer   = (*metrics.Prom)(nil)
)

func withTestRegistry(t *testing.T) (*prometheus.Registry, *metrics.Prom) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return reg, metrics.NewProm("test", reg)
}

func TestUploadMetrics(t *testing.T) {
	reg, m := withTestRegistry(t)
	m.UploadFinished(upload.StateCompleted, 2*time.Second)
	m.UploadFinished(upload.StateFailed, time.Second)
	m.UploadFinished(upload.StateCompleted, time.Second)
	m.ArchiveExtracted(12, archive.DropStats{archive.DropExcluded: 3, archive.DropUnsafePath: 1})
	m.FileWritten(true)
	m.FileWritten(false)

	expected := `
# HELP test_uploads_total Uploads by final state
# TYPE test_uploads_total counter
test_uploads_total{status="completed"} 2
test_uploads_total{status="failed"} 1
# HELP test_archive_dropped_entries_total Archive entries dropped by policy reason
# TYPE test_archive_dropped_entries_total counter
test_archive_dropped_entries_total{reason="excluded"} 3
test_archive_dropped_entries_total{reason="unsafe_path"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_uploads_total", "test_archive_dropped_entries_total"))
	require.Equal(t, 1, testutil.CollectAndCount(reg, "test_upload_duration_seconds"))
	require.Equal(t, 2, testutil.CollectAndCount(reg, "test_file_writes_total"))
}

func TestSessionMetrics(t *testing.T) {
	reg, m := withTestRegistry(t)
	m.SessionCreated()
	m.SessionCreated()
	m.SessionsExpired(1)
	m.SessionsActive(1)

	expected := `
# HELP test_sessions_active Sessions currently held in memory
# TYPE test_sessions_active gauge
test_sessions_active 1
# HELP test_sessions_created_total Sessions created
# TYPE test_sessions_created_total counter
test_sessions_created_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_sessions_active", "test_sessions_created_total"))
}

func TestRequestMetrics(t *testing.T) {
	reg, m := withTestRegistry(t)
	m.ObserveRequest("GET", "/health", 200, 10*time.Millisecond)
	m.ObserveGitHubRequest("create_repository", 201, 300*time.Millisecond)
	m.IncRateLimited("upload")

	require.Equal(t, 1, testutil.CollectAndCount(reg, "test_http_requests_total"))
	require.Equal(t, 1, testutil.CollectAndCount(reg, "test_github_requests_total"))
	require.Equal(t, 1, testutil.CollectAndCount(reg, "test_rate_limited_requests_total"))
}

func TestHandler(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.NewProm(metrics.Namespace, reg)
	m.SessionsActive(3)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "repo_uploader_sessions_active 3")
	require.Contains(t, string(body), "go_goroutines")
}
