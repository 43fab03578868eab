package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/tracing"
)

const unsentRepublishLimit = 100

// ReminderPublisher puts reminder messages on the delivery queue
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *models.ReminderMessage) error
}

// ReminderService runs the scheduled reminder sweep and delivers reminder
// emails from the queue. The outbox row claimed per (event, recipient,
// window day) makes the send side idempotent across sweep retries.
type ReminderService struct {
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	outbox        repositories.OutboxRepository
	publisher     ReminderPublisher
	mailer        Mailer
	lookahead     time.Duration
	tracer        tracing.Tracer
}

// NewReminderService creates a new reminder service
func NewReminderService(
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	outbox repositories.OutboxRepository,
	publisher ReminderPublisher,
	mailer Mailer,
	lookahead time.Duration,
	tracer tracing.Tracer,
) *ReminderService {
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	return &ReminderService{
		events:        events,
		registrations: registrations,
		outbox:        outbox,
		publisher:     publisher,
		mailer:        mailer,
		lookahead:     lookahead,
		tracer:        tracer,
	}
}

// SweepReminders claims and publishes a reminder for every registration on
// events starting within the lookahead window. A failure for one event or
// recipient is logged and the sweep moves on; the batch is at-least-effort,
// never atomic.
func (s *ReminderService) SweepReminders(ctx context.Context) error {
	txn := s.tracer.StartTransaction("reminder-sweep")
	defer s.tracer.EndTransaction(txn)

	now := time.Now().UTC()
	events, err := s.events.ListStartingBetween(ctx, now, now.Add(s.lookahead))
	if err != nil {
		s.tracer.RecordError(txn, err)
		return errors.Wrap(err, "failed to load upcoming events")
	}

	if len(events) == 0 {
		log.Debug().Msg("No events starting within the reminder window")
	}

	for _, event := range events {
		regs, err := s.registrations.ListByEvent(ctx, event.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("Failed to list registrations for reminders")
			s.tracer.RecordError(txn, err)
			continue
		}

		for _, reg := range regs {
			entry := &models.ReminderOutbox{
				ID:         uuid.New(),
				EventID:    event.ID,
				Email:      reg.Email,
				WindowDate: event.Start.UTC().Format("2006-01-02"),
				EventTitle: event.Title,
				EventStart: event.Start,
			}

			claimed, err := s.outbox.Claim(ctx, entry)
			if err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Str("email", reg.Email).
					Msg("Failed to claim reminder outbox entry")
				s.tracer.RecordError(txn, err)
				continue
			}
			if !claimed {
				continue
			}

			if err := s.publishEntry(ctx, entry); err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Str("email", reg.Email).
					Msg("Failed to publish reminder, fallback pass will retry")
				s.tracer.RecordError(txn, err)
			}
		}
	}

	// Fallback pass: claimed entries that never got a sent stamp are
	// republished, so a lost message does not strand a reminder.
	unsent, err := s.outbox.ListUnsent(ctx, now.Add(-time.Hour), unsentRepublishLimit)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return errors.Wrap(err, "failed to list unsent reminders")
	}
	for i := range unsent {
		entry := &unsent[i]
		if err := s.publishEntry(ctx, entry); err != nil {
			log.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to republish unsent reminder")
			s.tracer.RecordError(txn, err)
		}
	}

	return nil
}

func (s *ReminderService) publishEntry(ctx context.Context, entry *models.ReminderOutbox) error {
	msg := &models.ReminderMessage{
		OutboxID:   entry.ID,
		EventID:    entry.EventID,
		Email:      entry.Email,
		EventTitle: entry.EventTitle,
		EventStart: entry.EventStart,
	}
	return s.publisher.PublishReminder(ctx, msg)
}

// ProcessReminderMessage delivers one reminder email from the queue and
// stamps the outbox row as sent.
func (s *ReminderService) ProcessReminderMessage(ctx context.Context, message *azservicebus.ReceivedMessage, txn *newrelic.Transaction) error {
	var msg models.ReminderMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal reminder message")
	}

	return s.DeliverReminder(ctx, &msg)
}

// DeliverReminder sends the reminder email and marks the outbox entry sent.
// Already-sent entries are skipped, so redelivered messages are harmless.
func (s *ReminderService) DeliverReminder(ctx context.Context, msg *models.ReminderMessage) error {
	entry, err := s.outbox.GetByID(ctx, msg.OutboxID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("outbox_id", msg.OutboxID.String()).Msg("Reminder outbox entry missing, dropping message")
			return nil
		}
		return errors.Wrap(err, "failed to load reminder outbox entry")
	}
	if entry.SentAt != nil {
		log.Debug().Str("outbox_id", msg.OutboxID.String()).Msg("Reminder already sent, skipping")
		return nil
	}

	subject := "Upcoming Event Reminder"
	body := fmt.Sprintf("You have registered to attend %s at %s",
		msg.EventTitle, msg.EventStart.Format(time.RFC1123))

	if err := s.mailer.Send(ctx, []string{msg.Email}, subject, body); err != nil {
		return errors.Wrap(err, "failed to send reminder email")
	}

	if err := s.outbox.MarkSent(ctx, msg.OutboxID, time.Now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("outbox_id", msg.OutboxID.String()).Msg("Reminder outbox entry vanished before sent stamp")
			return nil
		}
		return errors.Wrap(err, "failed to mark reminder as sent")
	}

	log.Info().
		Str("outbox_id", msg.OutboxID.String()).
		Str("email", msg.Email).
		Str("event", msg.EventTitle).
		Msg("Reminder delivered")

	return nil
}
