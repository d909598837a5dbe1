// Package router sets up all HTTP routes and middleware chains for the
// InstiPress API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"instipress/internal/handlers"
	"instipress/internal/middleware"
	"instipress/internal/realtime"
	"instipress/internal/session"
)

// Deps bundles the handler groups and shared services the router wires up.
type Deps struct {
	Sessions *session.Store
	Auth     *handlers.Auth
	Pages    *handlers.Pages
	Posts    *handlers.Posts
	Blocks   *handlers.Blocks
	Media    *handlers.Media
	Public   *handlers.Public
	Bridge   *realtime.Bridge
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler(d.Bridge))

	// Admin routes — CSRF-protected, session-cookie authenticated.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Login is rate-limited to slow down credential stuffing.
		loginLimiter := middleware.NewRateLimiter(10, time.Minute)
		r.With(loginLimiter.Middleware).Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Auth.Me)

			// Realtime notifications for connected dashboards.
			r.Get("/events", d.Bridge.ServeHTTP)

			// Pages
			r.Route("/pages", func(r chi.Router) {
				r.With(middleware.RequirePermission("content:page:read")).Get("/", d.Pages.List)
				r.With(middleware.RequirePermission("content:page:read")).Get("/tree", d.Pages.Tree)
				r.With(middleware.RequirePermission("content:page:read")).Get("/{id}", d.Pages.Get)
				r.With(middleware.RequirePermission("content:page:create")).Post("/", d.Pages.Create)
				r.With(middleware.RequirePermission("content:page:update")).Put("/{id}", d.Pages.Update)
				r.With(middleware.RequirePermission("content:page:update")).Post("/{id}/move", d.Pages.Move)
				r.With(middleware.RequirePermission("content:page:delete")).Delete("/{id}", d.Pages.Trash)
				r.With(middleware.RequirePermission("content:page:update")).Post("/{id}/restore", d.Pages.Restore)
				r.With(middleware.RequirePermission("content:page:delete")).Delete("/{id}/purge", d.Pages.Purge)
			})

			// Posts
			r.Route("/posts", func(r chi.Router) {
				r.With(middleware.RequirePermission("content:post:read")).Get("/", d.Posts.List)
				r.With(middleware.RequirePermission("content:post:read")).Get("/{id}", d.Posts.Get)
				r.With(middleware.RequirePermission("content:post:create")).Post("/", d.Posts.Create)
				r.With(middleware.RequirePermission("content:post:read")).Post("/preview", d.Posts.Preview)
				r.With(middleware.RequirePermission("content:post:update")).Put("/{id}", d.Posts.Update)
				r.With(middleware.RequirePermission("content:post:delete")).Delete("/{id}", d.Posts.Delete)
			})

			// Blocks
			r.Route("/blocks", func(r chi.Router) {
				r.With(middleware.RequirePermission("content:block:read")).Get("/", d.Blocks.List)
				r.With(middleware.RequirePermission("content:block:read")).Get("/{id}", d.Blocks.Get)
				r.With(middleware.RequirePermission("content:block:create")).Post("/", d.Blocks.Create)
				r.With(middleware.RequirePermission("content:block:update")).Put("/{id}", d.Blocks.Update)
				r.With(middleware.RequirePermission("content:block:delete")).Delete("/{id}", d.Blocks.Delete)
			})

			// Media
			r.Route("/media", func(r chi.Router) {
				r.With(middleware.RequirePermission("media:file:read")).Get("/", d.Media.List)
				r.With(middleware.RequirePermission("media:file:read")).Post("/resolve", d.Media.Resolve)
				r.With(middleware.RequirePermission("media:file:create")).Post("/", d.Media.Upload)
				r.With(middleware.RequirePermission("media:file:update")).Put("/{id}/alt-text", d.Media.UpdateAltText)
				r.With(middleware.RequirePermission("media:file:delete")).Delete("/{id}", d.Media.Delete)
			})
		})
	})

	// Public content delivery.
	r.Get("/posts", d.Public.ListPosts)
	r.Get("/posts/{slug}", d.Public.GetPost)
	r.Get("/pages/*", d.Public.GetPage)
	r.Get("/pages", d.Public.GetPage)

	return r
}

// healthHandler returns a JSON health check including the number of
// connected realtime clients.
func healthHandler(bridge *realtime.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients := 0
		if bridge != nil {
			clients = bridge.ClientCount()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","realtime_clients":%d}`, clients)
	}
}
