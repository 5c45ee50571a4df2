package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouteOptions struct {
	UploadPerMinute   int
	GeneratePerMinute int
	// StorageDir, when set, is served read-only at /storage/ so local image
	// URLs resolve.
	StorageDir string
}

func Routes(h *Handler, opts RouteOptions, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// after RequestID
	r.Use(RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", h.Ready)

	uploads := NewRateLimiter(opts.UploadPerMinute)
	generations := NewRateLimiter(opts.GeneratePerMinute)

	r.Route("/api", func(r chi.Router) {
		r.Use(Identity)

		r.With(uploads.Middleware).Post("/ingredients/upload", h.UploadIngredients)
		r.Get("/jobs/{jobId}", h.GetJob)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.ListRecipes)
			r.With(generations.Middleware).Post("/generate", h.GenerateRecipe)
			r.Get("/{id}", h.GetRecipe)
			r.Put("/{id}", h.UpdateRecipe)
			r.Delete("/{id}", h.DeleteRecipe)
			r.Post("/{id}/favorite", h.ToggleFavorite)
		})
	})

	if opts.StorageDir != "" {
		fs := http.StripPrefix("/storage/", http.FileServer(http.Dir(opts.StorageDir)))
		r.Get("/storage/*", fs.ServeHTTP)
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
