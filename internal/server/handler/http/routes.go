package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskTracker/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter constructs and returns an HTTP handler that serves
// the task tracker API.
//
// Routes:
//
//	POST   /users            → userHandler.Register
//	POST   /users/login      → userHandler.Login
//	POST   /users/logout     → userHandler.Logout     (bearer)
//	POST   /users/logoutAll  → userHandler.LogoutAll  (bearer)
//	GET    /users/me         → userHandler.Me         (bearer)
//	PATCH  /users/me         → userHandler.UpdateMe   (bearer)
//	DELETE /users/me         → userHandler.DeleteMe   (bearer)
//	POST   /tasks            → taskHandler.Create     (bearer)
//	GET    /tasks            → taskHandler.List       (bearer)
//	GET    /tasks/{id}       → taskHandler.Get        (bearer)
//	PATCH  /tasks/{id}       → taskHandler.Update     (bearer)
//	DELETE /tasks/{id}       → taskHandler.Delete     (bearer)
//	GET    /healthz          → store ping
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. Recoverer
//  3. AllowContentType("application/json") for requests with a body
//  4. WithRequestLogging(logger)
func NewRouter(
	userHandler *UserHandler,
	taskHandler *TaskHandler,
	validator middleware.TokenValidator,
	pinger Pinger,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public endpoints
	r.Post("/users", userHandler.Register)
	r.Post("/users/login", userHandler.Login)

	// Protected group: requires a live bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(validator))

		r.Post("/users/logout", userHandler.Logout)
		r.Post("/users/logoutAll", userHandler.LogoutAll)
		r.Get("/users/me", userHandler.Me)
		r.Patch("/users/me", userHandler.UpdateMe)
		r.Delete("/users/me", userHandler.DeleteMe)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.Get)
			r.Patch("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
	})

	return r
}
