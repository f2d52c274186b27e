package api

import (
	_ "fxconverter/docs"
	"fxconverter/internal/web/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	swagger "github.com/swaggo/http-swagger"
)

func NewRouter(h *handler.Handler, limiter *RateLimiter) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)

	router.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Get("/", h.Page)
		r.Post("/", h.Submit)
		r.Get("/api/v1/state", h.GetState)
		r.Patch("/api/v1/state", h.UpdateState)
		r.Get("/api/v1/state/text", h.GetStateText)
	})
	return router
}
