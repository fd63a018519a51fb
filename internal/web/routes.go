package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/mholecek/snapmatch/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	eventsHandler := handlers.NewEventsHandler(s.config, s.events, s.photos, s.reaper)
	photosHandler := handlers.NewPhotosHandler(s.ingestor, s.photos, s.reaper)
	matchHandler := handlers.NewMatchHandler(s.matcher)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Events (photographer side)
		r.Post("/events", eventsHandler.Create)
		r.Get("/events", eventsHandler.List)
		r.Get("/events/{id}", eventsHandler.Get)
		r.Delete("/events/{id}", eventsHandler.Delete)

		// Photos
		r.Post("/events/{id}/photos", photosHandler.Upload)
		r.Get("/events/{id}/photos", photosHandler.List)
		r.Delete("/photos/{id}", photosHandler.Delete)

		// Match (attendee side)
		r.Post("/events/{id}/match", matchHandler.Match)
	})
}
