package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"photostyler/internal/http/handlers"
	"photostyler/internal/infra"
	"photostyler/internal/middleware"
)

// NewRouter assembles the API surface with the shared middleware chain.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Locale(cfg.DefaultLocale, lookup))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)
	r.Get("/styles", app.ListStyles)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", app.GetSettings)
			r.Put("/", app.PutSettings)
		})

		r.Route("/generations", func(r chi.Router) {
			r.Post("/", app.Generate)
			r.Post("/retry", app.Retry)
			r.Get("/last", app.LastResult)
		})
	})

	return r
}
