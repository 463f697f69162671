package server

import (
	"net/http"
	"time"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
}

// HealthHandler answers liveness probes
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, HealthStatus{
			Status:    "ok",
			Timestamp: s.nowTime().UTC(),
			Service:   s.config.GetAppName(),
			Version:   s.config.GetAppVersion(),
			Sessions:  s.sessions.ActiveCount(),
		}, "")
	}
}

type APIIndex struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// APIIndexHandler describes the available endpoints
func (s *Server) APIIndexHandler() http.HandlerFunc {
	index := APIIndex{
		Name:        s.config.GetAppName() + " API",
		Version:     s.config.GetAppVersion(),
		Description: "Upload a tar.gz project archive as a new GitHub repository",
		Endpoints: map[string]string{
			"health":       "GET " + RouteHealth,
			"auth":         "GET " + RouteGitHubLogin,
			"callback":     "GET " + RouteGitHubCallback,
			"logout":       "POST " + RouteAuthLogout,
			"status":       "GET " + RouteAuthStatus,
			"profile":      "GET " + RouteAuthProfile,
			"upload":       "POST " + RouteUpload,
			"uploadStatus": "GET " + RouteUploadStatus,
			"repositories": "GET " + RouteUploadRepositories,
		},
	}
	if s.gatherer != nil {
		index.Endpoints["metrics"] = "GET " + RouteMetrics
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, index, "")
	}
}
