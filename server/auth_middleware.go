package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the authenticated *sessions.Session
	ContextKeySession ContextKey = "session"
	// ContextKeySessionToken stores the raw session token the caller presented
	ContextKeySessionToken ContextKey = "session_token"
)

// sessionToken reads the token from the Authorization header, falling back to the session cookie
func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if found && strings.EqualFold(scheme, "bearer") && token != "" {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionAuthMiddleware resolves the caller's session, sliding its expiry
// forward. Requests without a valid session continue anonymously.
func (s *Server) SessionAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := sessionToken(r)
		if raw == "" {
			next(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySessionToken, raw)
		session, err := s.sessions.Authenticate(raw)
		if err != nil {
			log.Debug().Err(err).Msg("session token rejected")
			next(w, r.WithContext(ctx))
			return
		}

		ctx = context.WithValue(ctx, ContextKeySession, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireAuth answers 401 unless SessionAuthMiddleware found a live session
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionFromContext(r.Context()) == nil {
			writeErrorMessage(w, http.StatusUnauthorized, apperrors.CodeUnauthorized, "Authentication required")
			return
		}
		next(w, r)
	}
}

func sessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}

func sessionTokenFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(ContextKeySessionToken).(string)
	return raw
}
