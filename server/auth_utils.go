package server

import (
	"net/http"
	"net/url"
	"time"
)

const (
	// sessionCookieName carries the signed session token
	sessionCookieName = "session_token"
	// oauthStateCookieName binds a GitHub authorization to the browser that started it
	oauthStateCookieName = "oauth_state"
)

func (s *Server) SetSessionCookie(w http.ResponseWriter, token string, r *http.Request, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (s *Server) SetOAuthStateCookie(w http.ResponseWriter, state string, r *http.Request, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// clearCookie expires name in the browser
func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func redirectSuccess(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RouteAuthSuccess, http.StatusFound)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, RouteAuthError+url.QueryEscape(message), http.StatusFound)
}
