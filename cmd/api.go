package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/api"
	"example.com/community/services/events/internal/cache"
	"example.com/community/services/events/internal/geo"
	"example.com/community/services/events/internal/mailer"
	"example.com/community/services/events/internal/metrics"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/search"
	"example.com/community/services/events/internal/services"
	"example.com/community/services/events/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server handling events, registrations, ratings and reports`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.NewDisabledTracer()
	}

	// Initialize Elasticsearch client
	var indexer services.EventIndexer
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	} else {
		indexer = elasticClient
	}

	// Initialize geocoder
	var geocoder services.Geocoder
	mapboxClient, err := geo.NewMapboxClient(cfg.Mapbox)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Mapbox client, continuing without geocoding")
	} else {
		geocoder = mapboxClient
	}

	// Initialize mailer
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)

	// Initialize metrics
	collector := metrics.NewCollector()

	// Initialize repositories
	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	registrationRepo := repositories.NewRegistrationRepository(db, readOnlyDB)
	ratingRepo := repositories.NewRatingRepository(db, readOnlyDB)
	userRepo := repositories.NewUserRepository(db, readOnlyDB)

	// Initialize services
	svcs := api.Services{
		Events:        services.NewEventService(eventRepo, redisCache, indexer, geocoder, tracer),
		Ratings:       services.NewRatingService(eventRepo, ratingRepo, redisCache, tracer),
		Registrations: services.NewRegistrationService(eventRepo, registrationRepo, tracer),
		Reports:       services.NewReportService(eventRepo, redisCache),
		Users:         services.NewUserService(userRepo, redisCache, smtpMailer),
		Geocoder:      geocoder,
	}

	// Initialize and start the server
	server := api.NewServer(&cfg, svcs, collector, tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

func initDatabases(cfg config.Config) (*gorm.DB, *gorm.DB, error) {
	// Initialize write database
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	// Initialize read-only database
	readOnlyDB, err := gorm.Open(postgres.Open(cfg.DB.ReadOnlyDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	// Auto-migrate only the write database
	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	// Configure connection pools for both databases
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying write DB connection")
	}
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	readSqlDB, err := readOnlyDB.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying read-only DB connection")
	}

	// Higher limits for read operations
	readSqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns * 2)
	readSqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns * 2)
	readSqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return db, readOnlyDB, nil
}
