package cmd

import (
	"context"
	"os"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/services"
	"example.com/community/services/events/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample events",
	Long:  `Populate the database with sample events for local development: five past events with engagement data and five upcoming events`,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	eventService := services.NewEventService(eventRepo, nil, nil, nil, tracing.NewDisabledTracer())

	count, err := eventService.SeedSampleEvents(context.Background())
	if err != nil {
		return err
	}

	log.Info().Int("count", count).Msg("Database seeded with sample events")
	return nil
}
