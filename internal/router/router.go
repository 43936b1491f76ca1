package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/go-todo-api/docs"
	"github.com/FACorreiaa/go-todo-api/internal/api"
	"github.com/FACorreiaa/go-todo-api/internal/api/auth"
	"github.com/FACorreiaa/go-todo-api/internal/api/todo"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            auth.Handler
	TodoHandler            todo.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
	// AuthRequestsPerMinute limits /auth/* per client IP; zero disables it.
	AuthRequestsPerMinute int
}

// SetupRouter builds the application routes. Server-wide middleware
// (request id, logging, recoverer) is applied by the caller.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/auth", func(r chi.Router) {
		if cfg.AuthRequestsPerMinute > 0 {
			r.Use(httprate.Limit(
				cfg.AuthRequestsPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests")
				}),
			))
		}

		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AuthHandler.Me)
		})
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)
		r.Get("/", cfg.TodoHandler.List)
		r.Post("/", cfg.TodoHandler.Create)
		r.Put("/", cfg.TodoHandler.Update)
		r.Delete("/", cfg.TodoHandler.Delete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
