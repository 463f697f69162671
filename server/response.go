package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-repo-uploader/github"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/rs/zerolog/log"
)

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, APIResponse{Success: true, Data: data, Message: message})
}

func writeErrorMessage(w http.ResponseWriter, status int, code apperrors.Code, message string) {
	writeJSON(w, status, APIResponse{Error: string(code), Message: message})
}

// writeError maps err to its code and status. Internal error text is only
// exposed outside production.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := statusForCode(code)

	var rateLimited *github.RateLimitError
	if apperrors.As(err, &rateLimited) {
		seconds := int(math.Ceil(rateLimited.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	resp := APIResponse{Error: string(code), Message: messageFor(code, err)}
	if !s.config.IsProduction() {
		resp.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("code", string(code)).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.CodeNoFile, apperrors.CodeInvalidProjectName, apperrors.CodeInvalidFileType, apperrors.CodeFileTooLarge:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized, apperrors.CodeUpstreamCredentialError, apperrors.CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeNameCollisionExhausted:
		return http.StatusConflict
	case apperrors.CodeArchiveExtraction:
		return http.StatusUnprocessableEntity
	case apperrors.CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case apperrors.CodeRepositoryCreation, apperrors.CodeFileUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(code apperrors.Code, err error) string {
	var coded *apperrors.Error
	if apperrors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	switch code {
	case apperrors.CodeUnauthorized:
		return "Authentication required"
	case apperrors.CodeUpstreamCredentialError:
		return "GitHub rejected the stored credential, please sign in again"
	case apperrors.CodeNotFound:
		return "Resource not found"
	case apperrors.CodeArchiveExtraction:
		return "The archive could not be extracted"
	case apperrors.CodeRateLimitExceeded:
		var rateLimited *github.RateLimitError
		if apperrors.As(err, &rateLimited) {
			return fmt.Sprintf("GitHub rate limit exceeded, retry in %s", rateLimited.RetryAfter.Round(time.Second))
		}
		return "Rate limit exceeded"
	case apperrors.CodeRepositoryCreation:
		return "Failed to create the GitHub repository"
	case apperrors.CodeFileUpload:
		return "Failed to upload files to GitHub"
	default:
		return "Upload failed"
	}
}
