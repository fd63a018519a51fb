package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/database/postgres"
	"github.com/mholecek/snapmatch/internal/reaper"
	"github.com/mholecek/snapmatch/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Run one expiry sweep and exit",
	Long: `Run a single expiry sweep over all events past their retention window.
Each expired event loses its photos (records and stored objects) and gets its
expired flag set. Useful as a cron job when the long-running server's daily
sweep is not in use, or to force an immediate sweep.`,
	RunE: runReap,
}

func init() {
	rootCmd.AddCommand(reapCmd)

	reapCmd.Flags().Bool("dry-run", false, "List expired events without deleting anything")
}

func runReap(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	events := postgres.NewEventRepository(pool)
	photos := postgres.NewPhotoRepository(pool)

	expired, err := events.ListExpirable(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("listing expirable events: %w", err)
	}
	if len(expired) == 0 {
		fmt.Println("No expired events.")
		return nil
	}

	if dryRun {
		fmt.Printf("Would expire %d event(s):\n", len(expired))
		for _, ev := range expired {
			count, err := photos.CountPhotosByEvent(ctx, ev.ID)
			if err != nil {
				return fmt.Errorf("counting photos for %s: %w", ev.ID, err)
			}
			fmt.Printf("  %s  %q  expired %s  %d photo(s)\n",
				ev.ID, ev.Name, ev.ExpiresAt.Format(time.RFC3339), count)
		}
		return nil
	}

	store, err := storage.NewS3Store(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting to object storage: %w", err)
	}
	sweeper := reaper.New(events, photos, store)

	bar := progressbar.NewOptions(len(expired),
		progressbar.OptionSetDescription("Sweeping expired events"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("events"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var photosDeleted, storageFailures, failed int
	for _, ev := range expired {
		deleted, failures, err := sweeper.PurgePhotos(ctx, ev.ID)
		photosDeleted += deleted
		storageFailures += failures
		if err != nil {
			fmt.Printf("\nWarning: event %s: %v\n", ev.ID, err)
			failed++
			bar.Add(1)
			continue
		}
		if err := events.MarkExpired(ctx, ev.ID); err != nil {
			fmt.Printf("\nWarning: event %s: marking expired: %v\n", ev.ID, err)
			failed++
		}
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Expired %d event(s), removed %d photo(s)\n", len(expired)-failed, photosDeleted)
	if storageFailures > 0 {
		fmt.Printf("Warning: %d stored object(s) could not be deleted\n", storageFailures)
	}
	if failed > 0 {
		return fmt.Errorf("%d event(s) failed to sweep", failed)
	}
	return nil
}
