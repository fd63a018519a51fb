package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/database/postgres"
	"github.com/mholecek/snapmatch/internal/extractor"
	"github.com/mholecek/snapmatch/internal/ingest"
	"github.com/mholecek/snapmatch/internal/match"
	"github.com/mholecek/snapmatch/internal/queue"
	"github.com/mholecek/snapmatch/internal/reaper"
	"github.com/mholecek/snapmatch/internal/storage"
	"github.com/mholecek/snapmatch/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gallery server",
	Long: `Start the SnapMatch gallery server.
The server exposes the photographer API (events, uploads) and the attendee
selfie match endpoint, runs the background descriptor extraction queue, and
sweeps expired galleries once a day.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (string, int) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return host, port
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	events := postgres.NewEventRepository(pool)
	photos := postgres.NewPhotoRepository(pool)

	if cfg.Storage.Bucket == "" {
		return errors.New("STORAGE_BUCKET environment variable is required")
	}
	fmt.Printf("Connecting to object storage...\n")
	store, err := storage.NewS3Store(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting to object storage: %w", err)
	}

	ext := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Dim)

	extractionQueue := queue.New(ext, photos)
	extractionQueue.Start()
	defer extractionQueue.Stop()
	fmt.Printf("Descriptor extraction queue running\n")

	sweeper := reaper.New(events, photos, store)
	sweeper.Start()
	defer sweeper.Stop()
	fmt.Printf("Expiry sweep scheduled\n")

	ingestor := ingest.New(events, photos, store, extractionQueue)
	matcher := match.New(events, photos, ext)

	host, port := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, host, port, events, photos, ingestor, matcher, sweeper)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting SnapMatch on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
