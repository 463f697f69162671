package server

import (
	"net/http"

	"github.com/jrsteele09/go-repo-uploader/github"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/internal/utils"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/rs/zerolog/log"
)

// PublicUser is the user as shown to the browser, without credentials
type PublicUser struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type AuthStatus struct {
	Authenticated bool        `json:"authenticated"`
	User          *PublicUser `json:"user"`
}

func publicUser(session *sessions.Session) *PublicUser {
	return &PublicUser{
		ID:        session.UserID,
		Login:     session.Login,
		Name:      session.Name,
		Email:     session.Email,
		AvatarURL: session.AvatarURL,
	}
}

// LogoutHandler destroys the caller's session and rejects its token from now on
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := sessionTokenFromContext(r.Context()); raw != "" {
			if err := s.sessions.Revoke(raw); err != nil {
				log.Debug().Err(err).Msg("logout with unusable token")
			}
		}
		clearCookie(w, sessionCookieName)
		writeData(w, http.StatusOK, nil, "Logged out")
	}
}

// AuthStatusHandler reports whether the caller is signed in. A session whose
// GitHub credential has been revoked is destroyed.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			writeData(w, http.StatusOK, AuthStatus{}, "")
			return
		}

		user, err := s.githubClient(r.Context(), session.AccessToken).AuthenticatedUser(r.Context())
		switch {
		case apperrors.Is(err, apperrors.ErrUpstreamUnauthorized):
			s.sessions.Destroy(session.ID)
			clearCookie(w, sessionCookieName)
			writeData(w, http.StatusOK, AuthStatus{}, "")
			return
		case err != nil:
			log.Warn().Err(err).Str("login", session.Login).Msg("github user lookup failed, using session identity")
			writeData(w, http.StatusOK, AuthStatus{Authenticated: true, User: publicUser(session)}, "")
			return
		}

		current := publicUser(session)
		current.Login = user.Login
		current.Name = user.Name
		current.AvatarURL = user.AvatarURL
		current.Email = utils.FirstNonEmpty(user.Email, current.Email)
		writeData(w, http.StatusOK, AuthStatus{Authenticated: true, User: current}, "")
	}
}

// ProfileHandler returns the caller's full GitHub profile
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		user, err := s.githubClient(r.Context(), session.AccessToken).AuthenticatedUser(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, struct {
			User *github.User `json:"user"`
		}{User: user}, "")
	}
}
