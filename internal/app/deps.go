package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/config"
	"github.com/prathamanvekar/video-app/internal/db"
	"github.com/prathamanvekar/video-app/internal/handlers"
	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/middleware"
	"github.com/prathamanvekar/video-app/internal/repositories"
	"github.com/prathamanvekar/video-app/internal/upload"
	"github.com/prathamanvekar/video-app/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases anything opened here; the pool
// belongs to the caller.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(), error) {
	logger := logging.FromContext(ctx)
	cleanup := func() {}

	if cfg.Session.Secret == "" {
		return handlers.Dependencies{}, cleanup, errors.New("VIDEOAPP_SESSION_SECRET is required")
	}

	var revocations auth.RevocationStore = repositories.NewPostgresRevocationStore(pool)
	if cfg.Redis.URL != "" {
		client, err := db.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return handlers.Dependencies{}, cleanup, err
		}
		cleanup = func() { _ = client.Close() }
		revocations = repositories.NewRedisRevocationStore(client)
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:  []byte(cfg.Session.Secret),
		IdleTTL: cfg.Session.IdleTTL,
		MaxAge:  cfg.Session.MaxAge,
	}, revocations)
	if err != nil {
		cleanup()
		return handlers.Dependencies{}, func() {}, err
	}

	users := repositories.NewPostgresUserRepository(pool)

	deps := handlers.Dependencies{
		Auth:         auth.NewAuthenticator(users, issuer),
		Sessions:     issuer,
		Users:        users,
		Videos:       videos.NewService(repositories.NewPostgresVideoRepository(pool)),
		Limiter:      middleware.NewKeyedRateLimiter(cfg.RateLimit),
		DB:           pool,
		CookieSecure: cfg.Session.CookieSecure,
	}

	delegate, err := upload.New(ctx, cfg.Upload)
	switch {
	case errors.Is(err, upload.ErrNotConfigured):
		logger.Warn("upload authorization disabled", "provider", cfg.Upload.Provider, "error", err)
	case err != nil:
		cleanup()
		return handlers.Dependencies{}, func() {}, fmt.Errorf("configure upload delegate: %w", err)
	default:
		deps.Uploads = delegate
	}

	return deps, cleanup, nil
}
