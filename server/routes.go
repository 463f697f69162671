package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/metrics"
)

func (s *Server) initRoutes() {
	// Service
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.ServiceMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIIndex, ChainMiddleware(s.APIIndexHandler(), s.ServiceMiddleware(s.CompressionMiddleware)...))
	if s.gatherer != nil {
		metricsHandler := metrics.Handler(s.gatherer)
		s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(metricsHandler.ServeHTTP, s.ServiceMiddleware()...))
	}

	// GitHub OAuth
	s.RegisterRouteHandler("GET "+RouteGitHubLogin, ChainMiddleware(s.GitHubLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteGitHubCallback, ChainMiddleware(s.GitHubCallbackHandler(), s.APIMiddleware()...))

	// Auth API
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.SessionAuthMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthStatus, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware(s.SessionAuthMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.SessionAuthMiddleware, s.RequireAuth)...))

	// Upload API
	s.RegisterRouteHandler("POST "+RouteUpload, ChainMiddleware(s.UploadHandler(), s.APIMiddleware(
		s.RateLimitMiddleware(s.uploadLimiter, "upload"),
		s.UploadSizeLimitMiddleware,
		s.SessionAuthMiddleware,
		s.RequireAuth,
	)...))
	s.RegisterRouteHandler("GET "+RouteUploadStatus, ChainMiddleware(s.UploadStatusHandler(), s.APIMiddleware(s.SessionAuthMiddleware, s.RequireAuth)...))
	s.RegisterRouteHandler("GET "+RouteUploadRepositories, ChainMiddleware(s.RepositoriesHandler(), s.APIMiddleware(s.CompressionMiddleware, s.SessionAuthMiddleware, s.RequireAuth)...))

	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.APIIndexHandler(), s.ServiceMiddleware()...))
	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.ServiceMiddleware()...))
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, apperrors.CodeNotFound, "Route not found")
	}
}
