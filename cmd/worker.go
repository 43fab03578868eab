package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/mailer"
	"example.com/community/services/events/internal/messaging"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/services"
	"example.com/community/services/events/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to deliver event reminders from Azure Service Bus with a periodic sweep as fallback`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.NewDisabledTracer()
	}

	// Initialize mailer
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)

	// Initialize Azure Service Bus client
	azureBus, err := messaging.NewAzureServiceBus(cfg.Azure, tracer)
	if err != nil {
		return err
	}
	defer azureBus.Close()

	// Initialize repositories
	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	registrationRepo := repositories.NewRegistrationRepository(db, readOnlyDB)
	outboxRepo := repositories.NewOutboxRepository(db, readOnlyDB)

	// Initialize the reminder service
	reminderService := services.NewReminderService(
		eventRepo,
		registrationRepo,
		outboxRepo,
		azureBus,
		smtpMailer,
		cfg.Reminder.Lookahead,
		tracer,
	)

	// Start the service bus processor
	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting Azure Service Bus processor")
		return azureBus.ProcessMessages(ctx, reminderService.ProcessReminderMessage)
	})

	// Start the reminder sweep cron job. The sweep claims outbox entries and
	// publishes them to the queue; it also republishes entries that were
	// claimed but never delivered.
	g.Go(func() error {
		log.Info().Dur("interval", cfg.Reminder.SweepInterval).Msg("Starting reminder sweep job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reminder.SweepInterval),
			gocron.NewTask(func() {
				if err := reminderService.SweepReminders(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to sweep reminders")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
