package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Auth         Authenticator
	Sessions     SessionManager
	Users        UserLookup
	Videos       VideoService
	Uploads      UploadAuthorizer
	Limiter      RateLimiter
	DB           Pinger
	CookieSecure bool
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	authHandler := AuthHandler{
		Auth:         deps.Auth,
		Sessions:     deps.Sessions,
		Users:        deps.Users,
		Limiter:      deps.Limiter,
		CookieSecure: deps.CookieSecure,
	}
	videoHandler := VideoHandler{Videos: deps.Videos}
	uploadHandler := UploadHandler{Uploads: deps.Uploads}
	sessions := SessionMiddleware{Sessions: deps.Sessions, CookieSecure: deps.CookieSecure}

	r.Get("/healthz", health.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(sessions.Require)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/session", authHandler.Session)
			r.Get("/auth/upload-auth", uploadHandler.Authorize)
			r.Get("/auth/imagekit-auth", uploadHandler.Authorize)
			r.Get("/video", videoHandler.List)
			r.Post("/video", videoHandler.Create)
		})
	})
}
