package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/health", apiHandler.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/start-session", apiHandler.StartSessionHandler)
		r.Post("/ask", apiHandler.AskHandler)
		r.Get("/get-history", apiHandler.GetHistoryHandler)
		r.Post("/update-profile", apiHandler.UpdateProfileHandler)
		r.Get("/get-sessions", apiHandler.GetSessionsHandler)
	})

	return r
}
