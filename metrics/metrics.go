package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-repo-uploader/archive"
	"github.com/jrsteele09/go-repo-uploader/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "repo_uploader"

// Prom holds every collector the service exports. It satisfies the observer
// interfaces of the upload, sessions and github packages.
type Prom struct {
	uploads        *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	archiveEntries prometheus.Histogram
	droppedEntries *prometheus.CounterVec
	fileWrites     *prometheus.CounterVec

	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	sessionsActive  prometheus.Gauge

	githubRequests *prometheus.CounterVec
	githubLatency  *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
}

// NewProm creates the collectors and registers them with reg
func NewProm(namespace string, reg prometheus.Registerer) *Prom {
	p := &Prom{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads by final state",
		}, []string{"status"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End to end upload processing time",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		archiveEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_entries",
			Help:      "Entries seen per extracted archive",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		droppedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dropped_entries_total",
			Help:      "Archive entries dropped by policy reason",
		}, []string{"reason"}),
		fileWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_writes_total",
			Help:      "Repository file writes by result",
		}, []string{"result"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions removed after expiry",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory",
		}),
		githubRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub API requests by operation and status",
		}, []string{"operation", "status"}),
		githubLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "github_request_duration_seconds",
			Help:      "GitHub API latency by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-IP limiter",
		}, []string{"limiter"}),
	}
	reg.MustRegister(
		p.uploads, p.uploadDuration, p.archiveEntries, p.droppedEntries, p.fileWrites,
		p.sessionsCreated, p.sessionsExpired, p.sessionsActive,
		p.githubRequests, p.githubLatency,
		p.httpRequests, p.httpLatency, p.rateLimited,
	)
	return p
}

// NewRegistry returns a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler for /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// --- upload.Observer ---

func (p *Prom) UploadFinished(status upload.State, elapsed time.Duration) {
	p.uploads.WithLabelValues(string(status)).Inc()
	p.uploadDuration.Observe(elapsed.Seconds())
}

func (p *Prom) ArchiveExtracted(entries int, dropped archive.DropStats) {
	p.archiveEntries.Observe(float64(entries))
	for reason, n := range dropped {
		p.droppedEntries.WithLabelValues(string(reason)).Add(float64(n))
	}
}

func (p *Prom) FileWritten(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	p.fileWrites.WithLabelValues(result).Inc()
}

// --- sessions.Observer ---

func (p *Prom) SessionCreated() {
	p.sessionsCreated.Inc()
}

func (p *Prom) SessionsExpired(n int) {
	p.sessionsExpired.Add(float64(n))
}

func (p *Prom) SessionsActive(n int) {
	p.sessionsActive.Set(float64(n))
}

// --- github.Observer ---

func (p *Prom) ObserveGitHubRequest(operation string, status int, elapsed time.Duration) {
	p.githubRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	p.githubLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// --- HTTP ---

func (p *Prom) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (p *Prom) IncRateLimited(limiter string) {
	p.rateLimited.WithLabelValues(limiter).Inc()
}
