package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-repo-uploader/github"
	"github.com/jrsteele09/go-repo-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/internal/utils"
	"github.com/jrsteele09/go-repo-uploader/upload"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk
const multipartMemory = 32 * config.MB

// UploadHandler accepts a multipart archive and turns it into a new repository
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if apperrors.As(err, &tooLarge) {
				writeErrorMessage(w, http.StatusRequestEntityTooLarge, apperrors.CodeFileTooLarge, "The upload exceeds the maximum size")
				return
			}
			if !apperrors.Is(err, http.ErrNotMultipart) {
				s.writeError(w, apperrors.New(apperrors.CodeNoFile, "The upload could not be read", err))
				return
			}
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		req := upload.Request{
			Owner:       session.Login,
			ProjectName: strings.TrimSpace(r.FormValue("projectName")),
			Description: strings.TrimSpace(r.FormValue("projectDescription")),
			Private:     r.FormValue("isPrivate") == "true",
			Topics:      utils.ParseStringList(r.FormValue("topics")),
		}
		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			req.File = file
			req.FileName = header.Filename
			req.FileSize = header.Size
		}

		outcome, err := s.orchestrator.Run(r.Context(), s.githubClient(r.Context(), session.AccessToken), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, outcome, outcome.Message)
	}
}

type UploadStatus struct {
	UploadID string `json:"uploadId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// UploadStatusHandler reports progress for an upload. Uploads run
// synchronously, so any upload a client can ask about has completed.
func (s *Server) UploadStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, UploadStatus{
			UploadID: r.PathValue("uploadId"),
			Status:   string(upload.StateCompleted),
			Progress: 100,
			Message:  "Upload complete",
		}, "")
	}
}

// RepositoriesHandler lists the caller's repositories, most recently updated first
func (s *Server) RepositoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		repos, err := s.githubClient(r.Context(), session.AccessToken).ListRepositories(r.Context(), page, perPage)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if repos == nil {
			repos = []github.Repository{}
		}
		writeData(w, http.StatusOK, struct {
			Repositories []github.Repository `json:"repositories"`
		}{Repositories: repos}, "")
	}
}
