// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package web

import "net/http"

// SessionCookieName is the transport cookie carrying the session secret.
const SessionCookieName = "driftfile_session"

// setSessionCookie binds the session secret to the transport. No Max-Age:
// the session lifetime is whatever the store says it is.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie instructs the browser to drop the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// sessionToken extracts the session secret from the request, or "".
func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
