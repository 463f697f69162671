package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-repo-uploader/github"
	"github.com/jrsteele09/go-repo-uploader/internal/utils"
	"github.com/jrsteele09/go-repo-uploader/server/authflowrepo"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/rs/zerolog/log"
)

// GitHubLoginHandler starts the OAuth flow: the state is remembered server
// side and in a short lived cookie, then the browser is sent to GitHub.
func (s *Server) GitHubLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := github.NewState()
		if err != nil {
			log.Err(err).Msg("failed to generate oauth state")
			redirectWithError(w, r, "Failed to start GitHub sign in")
			return
		}

		now := s.nowTime()
		ttl := s.config.GetOAuthStateTTL()
		if err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			ReturnURL: RouteAuthSuccess,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}); err != nil {
			log.Err(err).Msg("failed to store oauth state")
			redirectWithError(w, r, "Failed to start GitHub sign in")
			return
		}

		s.SetOAuthStateCookie(w, state, r, ttl)
		http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
	}
}

// GitHubCallbackHandler completes the OAuth flow and opens a session
func (s *Server) GitHubCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		state := query.Get("state")
		code := query.Get("code")

		if errorParam := query.Get("error"); errorParam != "" {
			message := utils.FirstNonEmpty(query.Get("error_description"), "GitHub sign in was cancelled")
			log.Warn().Str("error", errorParam).Str("description", message).Msg("github authorization failed")
			redirectWithError(w, r, message)
			return
		}
		if code == "" || state == "" {
			redirectWithError(w, r, "Missing code or state parameter")
			return
		}

		cookie, err := r.Cookie(oauthStateCookieName)
		if err != nil || cookie.Value != state {
			redirectWithError(w, r, "Invalid state parameter")
			return
		}
		clearCookie(w, oauthStateCookieName)

		authState, err := s.authState.Get(state)
		if err != nil {
			redirectWithError(w, r, "Invalid state parameter")
			return
		}
		// Clean up state after use
		if err := s.authState.Delete(state); err != nil {
			log.Err(err).Msg("failed to delete oauth state")
		}

		accessToken, err := s.oauth.Exchange(r.Context(), code)
		if err != nil {
			log.Err(err).Msg("github token exchange failed")
			redirectWithError(w, r, "GitHub sign in failed")
			return
		}

		user, err := s.githubClient(r.Context(), accessToken).AuthenticatedUser(r.Context())
		if err != nil {
			log.Err(err).Msg("failed to fetch github user")
			redirectWithError(w, r, "GitHub sign in failed")
			return
		}

		session, err := s.sessions.Create(sessions.Identity{
			UserID:      strconv.FormatInt(user.ID, 10),
			Login:       user.Login,
			Name:        user.Name,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
			AccessToken: accessToken,
		})
		if err != nil {
			log.Err(err).Msg("failed to create session")
			redirectWithError(w, r, "GitHub sign in failed")
			return
		}

		token, err := s.sessions.IssueToken(session.ID)
		if err != nil {
			s.sessions.Destroy(session.ID)
			log.Err(err).Msg("failed to issue session token")
			redirectWithError(w, r, "GitHub sign in failed")
			return
		}

		s.SetSessionCookie(w, token, r, s.sessions.MaxAge())
		log.Info().Str("login", user.Login).Msg("user signed in")
		http.Redirect(w, r, authState.ReturnURL, http.StatusFound)
	}
}
