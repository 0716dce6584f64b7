package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/models"
)

// AuthHandler implements account and session endpoints.
type AuthHandler struct {
	Auth         Authenticator
	Sessions     SessionManager
	Users        UserLookup
	Limiter      RateLimiter
	CookieSecure bool
}

// Register handles POST /api/auth/register. It creates the account only;
// clients log in separately.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Auth == nil {
		logger.Error("authenticator unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrWeakPassword):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(ctx, w, http.StatusConflict, err.Error())
		default:
			logger.Error("register failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /api/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Auth == nil {
		logger.Error("authenticator unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(ctx, w, http.StatusUnauthorized, err.Error())
		default:
			logger.Error("login failed", "error", err, "state", result.State.String())
			respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		}
		return
	}

	setSessionCookie(w, result.Token, h.CookieSecure)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		Token:     result.Token.Value,
		ExpiresAt: result.Token.ExpiresAt,
		User:      result.User,
	})
}

// Logout handles POST /api/auth/logout. Every token of the session stops
// validating, including ones refreshed earlier.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	if err := h.Sessions.Revoke(ctx, session); err != nil {
		logger.Error("revoke session failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	w.Header().Del(sessionTokenHeader)
	w.Header().Del("Set-Cookie")
	clearSessionCookie(w, h.CookieSecure)
	logger.Info("session ended")
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/auth/session.
func (h AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	user := sessionUser{ID: session.UserID, Email: session.Email}
	if h.Users != nil {
		stored, err := h.Users.FindByID(ctx, session.UserID)
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			logger.Warn("session for unknown account")
			respondUnauthorized(ctx, w)
			return
		case err != nil:
			logger.Error("session user lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to load session")
			return
		}
		user = sessionUser{ID: stored.ID, Email: stored.Email}
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user, ExpiresAt: session.ExpiresAt})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User models.User `json:"user"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	User      sessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
