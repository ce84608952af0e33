package http

import (
	"net/http"

	"github.com/atinyakov/taskmanager/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig collects the dependencies of NewRouter.
type RouterConfig struct {
	Users   *UserHandler
	Avatars *AvatarHandler
	Tasks   *TaskHandler
	// Auth authenticates protected routes.
	Auth func(http.Handler) http.Handler
	// Limiter, if set, is applied to every request.
	Limiter func(http.Handler) http.Handler
	Version string
	Logger  *zap.Logger
}

// NewRouter constructs the HTTP handler serving the task manager API.
//
// Routes:
//
//	GET    /healthz                   → Health
//	POST   /user/create               → Users.Create
//	POST   /user/login                → Users.Login
//	GET    /user/profile/avatar?id=   → Avatars.Get
//	POST   /user/logout               → Users.Logout      (auth)
//	POST   /user/logoutAll            → Users.LogoutAll   (auth)
//	GET    /user/all                  → Users.List        (auth)
//	GET    /user/profile              → Users.Profile     (auth)
//	PATCH  /user/update               → Users.Update      (auth)
//	DELETE /user/delete               → Users.Delete      (auth)
//	POST   /user/profile/avatar       → Avatars.Upload    (auth, multipart)
//	DELETE /user/profile/avatar       → Avatars.Delete    (auth)
//	POST   /task/create               → Tasks.Create      (auth)
//	GET    /task/all                  → Tasks.List        (auth)
//	GET    /task/{id}                 → Tasks.Get         (auth)
//	PATCH  /task/{id}                 → Tasks.Update      (auth)
//	DELETE /task/{id}                 → Tasks.Delete      (auth)
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(cfg.Logger))
	r.Use(chiMiddleware.Recoverer)
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", Health(cfg.Version))
	r.Get("/user/profile/avatar", cfg.Avatars.Get)

	// Public JSON endpoints
	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(chiMiddleware.RequestSize(maxJSONBody))

		r.Post("/user/create", cfg.Users.Create)
		r.Post("/user/login", cfg.Users.Login)
	})

	// Protected JSON endpoints: authentication runs before content checks
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth)
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(chiMiddleware.RequestSize(maxJSONBody))

		r.Post("/user/logout", cfg.Users.Logout)
		r.Post("/user/logoutAll", cfg.Users.LogoutAll)
		r.Get("/user/all", cfg.Users.List)
		r.Get("/user/profile", cfg.Users.Profile)
		r.Patch("/user/update", cfg.Users.Update)
		r.Delete("/user/delete", cfg.Users.Delete)
		r.Delete("/user/profile/avatar", cfg.Avatars.Delete)

		r.Route("/task", func(r chi.Router) {
			r.Post("/create", cfg.Tasks.Create)
			r.Get("/all", cfg.Tasks.List)
			r.Get("/{id}", cfg.Tasks.Get)
			r.Patch("/{id}", cfg.Tasks.Update)
			r.Delete("/{id}", cfg.Tasks.Delete)
		})
	})

	// Multipart upload
	r.With(cfg.Auth, chiMiddleware.AllowContentType("multipart/form-data")).
		Post("/user/profile/avatar", cfg.Avatars.Upload)

	return r
}
