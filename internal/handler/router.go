package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps — всё, что нужно для сборки маршрутов.
type RouterDeps struct {
	Photos         *PhotoHandler
	Comments       *CommentHandler
	Users          *UserHandler
	Authenticator  Authenticator
	RateLimiter    *RateLimiter
	DB             Pinger
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Logger))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", Health(d.DB, d.Logger))

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Authenticator, d.Logger))
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}

		r.Route("/photos", func(r chi.Router) {
			r.Post("/", d.Photos.UploadPhoto)
			r.Get("/mine", d.Photos.ListMine)
			r.Get("/all", d.Photos.ListAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Photos.GetPhoto)
				r.Patch("/", d.Photos.UpdatePhoto)
				r.Delete("/", d.Photos.DeletePhoto)
				r.Post("/transform", d.Photos.TransformPhoto)
				r.Post("/comments", d.Comments.AddComment)
				r.Get("/comments", d.Comments.ListComments)
			})
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Patch("/", d.Comments.EditComment)
			r.Delete("/", d.Comments.DeleteComment)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", d.Users.ListUsers)
			r.Get("/me", d.Users.Me)
			r.Patch("/avatar", d.Users.UpdateAvatar)
			r.Post("/{id}/role", d.Users.AssignRole)
		})
	})

	return r
}
