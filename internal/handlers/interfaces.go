package handlers

import (
	"context"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/models"
	"github.com/prathamanvekar/video-app/internal/upload"
	"github.com/prathamanvekar/video-app/internal/videos"
)

// Authenticator registers accounts and exchanges credentials for sessions.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Register(ctx context.Context, email, password string) (models.User, error)
}

// SessionManager validates, slides and revokes session tokens.
type SessionManager interface {
	Validate(ctx context.Context, raw string) (auth.Session, error)
	Refresh(session auth.Session) (auth.Token, error)
	Revoke(ctx context.Context, session auth.Session) error
}

// UserLookup resolves the account behind a session.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// VideoService lists and creates videos for the session's identity.
type VideoService interface {
	List(ctx context.Context, identity auth.Identity) ([]models.Video, error)
	Create(ctx context.Context, identity auth.Identity, input videos.CreateInput) (models.Video, error)
}

// UploadAuthorizer hands out direct-upload credentials.
type UploadAuthorizer interface {
	Authorize(ctx context.Context, userID string) (upload.Credentials, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
