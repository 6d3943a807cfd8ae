// Package router sets up all HTTP routes and middleware chains for
// LetterLove. Routes are split into the JSON API under /api, the public
// share page, and a handful of static endpoints.
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"letterlove/internal/handlers"
	"letterlove/internal/middleware"
)

// Handlers holds the handler groups mounted by New.
type Handlers struct {
	Templates *handlers.Templates
	Cards     *handlers.Cards
	Enhance   *handlers.Enhance
	Auth      *handlers.Auth
	Share     *handlers.Share
}

// Options configures the middleware chain.
type Options struct {
	// SecureCookies sets the Secure flag on the CSRF cookie.
	SecureCookies bool

	// AuthLimiter and EnhanceLimiter throttle the credential endpoints and
	// the AI endpoint. Either may be nil to disable limiting.
	AuthLimiter    *middleware.RateLimiter
	EnhanceLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionReader, tokens middleware.TokenParser, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Static endpoints: no identity, no CSRF.
	r.Get("/health", handlers.Health)
	r.Get("/robots.txt", handlers.Robots)
	r.Get("/manifest.webmanifest", handlers.Manifest)

	r.Get("/share/{id}", h.Share.View)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(sessions, tokens))
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.Templates.List)
			r.Get("/category/{category}", h.Templates.ByCategory)
			r.Get("/{id}", h.Templates.Get)
		})

		r.Group(func(r chi.Router) {
			useLimiter(r, opts.EnhanceLimiter)
			r.Post("/ai/enhance", h.Enhance.Post)
		})

		r.Get("/me", h.Auth.Me)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Patch("/me", h.Auth.UpdateMe)
			r.Delete("/me", h.Auth.DeleteMe)
		})

		r.Route("/auth", func(r chi.Router) {
			useLimiter(r, opts.AuthLimiter)

			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/signout", h.Auth.SignOut)
			r.Get("/oauth/start", h.Auth.OAuthStart)
			r.Get("/oauth/callback", h.Auth.OAuthCallback)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/2fa/setup", h.Auth.TwoFASetup)
				r.Post("/2fa/enable", h.Auth.TwoFAEnable)
				r.Post("/2fa/disable", h.Auth.TwoFADisable)
			})
		})

		r.Route("/cards", func(r chi.Router) {
			// Anyone holding the id may read a card.
			r.Get("/{id}", h.Cards.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/", h.Cards.List)
				r.Post("/", h.Cards.Create)
				r.Delete("/{id}", h.Cards.Delete)
			})
		})
	})

	return r
}

func useLimiter(r chi.Router, rl *middleware.RateLimiter) {
	if rl != nil {
		r.Use(rl.Middleware)
	}
}
