package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router with all the relay's routes.
func NewRouter(chatHandler *ChatHandler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.
	r.Use(corsMiddleware(allowedOrigins))

	// Liveness probes. Container orchestration hits /health; the root path
	// answers the same payload for simple uptime checks.
	r.Get("/health", chatHandler.HandleHealth)
	r.Get("/", chatHandler.HandleHealth)

	// The chat endpoint carries a request timeout so a wedged upstream call
	// cannot hold client connections open indefinitely, and a per-IP limiter
	// so one visitor cannot burn the whole upstream quota.
	chatLimiter := NewRateLimiter(20, time.Minute)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(chatLimiter.Middleware)
		r.Post("/chat", chatHandler.HandleChat)
	})

	// --- Frontend File Server ---
	// Serves the static chat page. In production this would typically sit
	// behind a CDN or Nginx, but it is useful for local development.
	fileServer := http.FileServer(http.Dir("./web"))
	r.Handle("/web/*", http.StripPrefix("/web/", fileServer))

	return r
}
