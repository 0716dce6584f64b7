package auth

import (
	"context"
	"time"
)

// Identity is the authenticated principal a session is bound to.
type Identity struct {
	UserID string
	Email  string
}

// Session is the validated content of a session token.
type Session struct {
	ID        string
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	AuthTime  time.Time
}

// Identity returns the principal the session belongs to.
func (s Session) Identity() Identity {
	return Identity{UserID: s.UserID, Email: s.Email}
}

// Token is a signed session credential handed to clients.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ctxKey string

const sessionKey ctxKey = "session"

// WithSession stores a validated session on the context.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(sessionKey).(Session)
	if !ok || session.UserID == "" {
		return Session{}, false
	}
	return session, true
}
