package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-repo-uploader/github"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	"github.com/jrsteele09/go-repo-uploader/metrics"
	"github.com/jrsteele09/go-repo-uploader/server/authflowrepo"
	"github.com/jrsteele09/go-repo-uploader/server/ratelimit"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/jrsteele09/go-repo-uploader/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// OAuthProvider runs the GitHub authorization code flow
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// GitHubAPI is what the handlers need from GitHub on behalf of one user
type GitHubAPI interface {
	upload.RepositoryWriter
	AuthenticatedUser(ctx context.Context) (*github.User, error)
	ListRepositories(ctx context.Context, page, perPage int) ([]github.Repository, error)
}

// GitHubClientFactory builds a GitHub client acting with accessToken
type GitHubClientFactory func(ctx context.Context, accessToken string) GitHubAPI

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.Handler
	routes  []string
	config  config.Config

	sessions     *sessions.Store
	authState    authflowrepo.Repo
	oauth        OAuthProvider
	githubClient GitHubClientFactory
	orchestrator *upload.Orchestrator

	metrics  *metrics.Prom
	gatherer prometheus.Gatherer

	apiLimiter    *ratelimit.Limiter
	uploadLimiter *ratelimit.Limiter
	nowTime       func() time.Time
}

type Option func(*Server)

// WithOAuthProvider replaces the GitHub OAuth flow
func WithOAuthProvider(p OAuthProvider) Option {
	return func(s *Server) {
		s.oauth = p
	}
}

// WithGitHubClientFactory replaces how per-user GitHub clients are built
func WithGitHubClientFactory(f GitHubClientFactory) Option {
	return func(s *Server) {
		s.githubClient = f
	}
}

// WithMetrics records request, upload and GitHub metrics and serves g on /metrics
func WithMetrics(m *metrics.Prom, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(config config.Config, sessionStore *sessions.Store, authStateRepo authflowrepo.Repo, opts ...Option) (*Server, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("[Server New] session store is required")
	}
	if authStateRepo == nil {
		return nil, fmt.Errorf("[Server New] auth state repo is required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		sessions:  sessionStore,
		authState: authStateRepo,
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.oauth == nil {
		s.oauth = github.NewOAuth(config)
	}
	if s.githubClient == nil {
		s.githubClient = s.newGitHubClient
	}

	var uploadOpts []upload.OrchestratorOption
	if s.metrics != nil {
		uploadOpts = append(uploadOpts, upload.WithObserver(s.metrics))
	}
	s.orchestrator = upload.NewOrchestrator(config, uploadOpts...)

	window := config.GetRateLimitWindow()
	s.apiLimiter = ratelimit.New(config.GetRateLimitMaxRequests(), window, ratelimit.WithNowTime(s.nowTime))
	s.uploadLimiter = ratelimit.New(config.GetUploadRateLimitMax(), window, ratelimit.WithNowTime(s.nowTime))
	s.apiLimiter.StartCleanup(window)
	s.uploadLimiter.StartCleanup(window)

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   config.GetAllowedOrigins().List(),
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(s.mux)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) newGitHubClient(ctx context.Context, accessToken string) GitHubAPI {
	opts := []github.ClientOption{github.WithBaseURL(s.config.GetGitHubAPIURL())}
	if s.metrics != nil {
		opts = append(opts, github.WithObserver(s.metrics))
	}
	return github.NewClient(ctx, accessToken, opts...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops the rate limiter cleanup loops
func (s *Server) Close() {
	s.apiLimiter.Stop()
	s.uploadLimiter.Stop()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		logRoute(method, path)
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// getScheme reports the scheme the client used, honouring a TLS terminating proxy
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
