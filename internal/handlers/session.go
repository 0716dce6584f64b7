package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/logging"
)

const (
	sessionCookieName  = "session_token"
	sessionTokenHeader = "X-Session-Token"
)

// SessionMiddleware admits requests carrying a valid session token and
// slides the session forward on every admitted request.
type SessionMiddleware struct {
	Sessions     SessionManager
	CookieSecure bool
}

// Require rejects requests without a valid session with 401.
func (m SessionMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		if m.Sessions == nil {
			logger.Error("session manager unavailable")
			respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
			return
		}

		raw := sessionToken(r)
		if raw == "" {
			respondUnauthorized(ctx, w)
			return
		}

		session, err := m.Sessions.Validate(ctx, raw)
		if err != nil {
			var invalid *auth.InvalidTokenError
			if errors.As(err, &invalid) {
				logger.Warn("session rejected", "reason", string(invalid.Reason))
				respondUnauthorized(ctx, w)
				return
			}
			logger.Error("session validation failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
			return
		}

		token, err := m.Sessions.Refresh(session)
		if err != nil {
			logger.Warn("session refresh rejected", "userId", session.UserID, "error", err)
			respondUnauthorized(ctx, w)
			return
		}
		session.ExpiresAt = token.ExpiresAt

		w.Header().Set(sessionTokenHeader, token.Value)
		setSessionCookie(w, token, m.CookieSecure)

		ctx = auth.WithSession(ctx, session)
		ctx = logging.With(ctx, "userId", session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken prefers a bearer token and falls back to the session cookie.
func sessionToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, token auth.Token, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
