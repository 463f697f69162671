package server

import "github.com/jrsteele09/go-repo-uploader/internal/config"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - GitHub OAuth
	RouteGitHubLogin    = "/auth/github"
	RouteGitHubCallback = config.GitHubCallbackPath

	// Auth API Routes
	RouteAuthLogout  = "/api/auth/logout"
	RouteAuthStatus  = "/api/auth/status"
	RouteAuthProfile = "/api/auth/profile"

	// Upload API Routes
	RouteUpload             = "/api/upload"
	RouteUploadStatus       = "/api/upload/status/{uploadId}"
	RouteUploadRepositories = "/api/upload/repositories"

	// Service Routes
	RouteHealth   = "/health"
	RouteAPIIndex = "/api"
	RouteMetrics  = "/metrics"

	// Redirect targets after the OAuth callback
	RouteAuthSuccess = "/?auth=success"
	RouteAuthError   = "/?auth=error&message="
)
