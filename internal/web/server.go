// Package web wires the HTTP surface: photographer event management, photo
// uploads and the attendee selfie match endpoint.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/ingest"
	"github.com/mholecek/snapmatch/internal/match"
	"github.com/mholecek/snapmatch/internal/reaper"
	"github.com/mholecek/snapmatch/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	events   database.EventStore
	photos   database.PhotoStore
	ingestor *ingest.Ingestor
	matcher  *match.Engine
	reaper   *reaper.Reaper
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, host string, port int,
	events database.EventStore, photos database.PhotoStore,
	ing *ingest.Ingestor, eng *match.Engine, rp *reaper.Reaper) *Server {

	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		router:   r,
		events:   events,
		photos:   photos,
		ingestor: ing,
		matcher:  eng,
		reaper:   rp,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // long timeout for batch uploads
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
