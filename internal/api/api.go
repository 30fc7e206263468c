package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/samber/do/v2"
	"github.com/willie68/go_vendortiles/internal/apiv1"
	"github.com/willie68/go_vendortiles/internal/logging"
)

var log = logging.New("api")

// APIRoutes configuring the api routes for the main REST API
func APIRoutes(inj do.Injector) (*chi.Mux, error) {
	router := chi.NewRouter()
	router.Use(
		render.SetContentType(render.ContentTypeJSON),
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}),
	)

	router.Route(apiv1.BaseURL, func(r chi.Router) {
		for _, h := range apiv1.Handlers(inj) {
			prefix, sub := h.Routes()
			log.Info("adding route", "path", apiv1.BaseURL+prefix)
			r.Mount(prefix, sub)
		}
	})
	return router, nil
}

// HealthRoutes routes of the health check server
func HealthRoutes(inj do.Injector) *chi.Mux {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := do.InvokeAs[tileProvider](inj); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	return router
}

type tileProvider interface {
	Providers() []string
}
