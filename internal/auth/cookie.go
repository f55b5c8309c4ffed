// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import (
	"net/http"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "st_sess"

// SessionCookie builds the cookie that carries a session id. Secure is set
// when running in production.
func SessionCookie(s *Session, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedSessionCookie builds a cookie that expires the session cookie
// immediately.
func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionIDFromRequest returns the session id carried by the request, or "".
func SessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
