package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/tracing"
)

// Registration actions accepted by the shared entry point
const (
	ActionRegister = "register"
	ActionAttend   = "attend"
)

// RegistrationService manages the registered -> attended lifecycle per
// (event, user) pair and the derived counters on the event.
type RegistrationService struct {
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	tracer        tracing.Tracer
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	tracer tracing.Tracer,
) *RegistrationService {
	return &RegistrationService{
		events:        events,
		registrations: registrations,
		tracer:        tracer,
	}
}

// HandleAction dispatches a register/attend request and returns the new
// status. Unknown actions are rejected.
func (s *RegistrationService) HandleAction(ctx context.Context, eventID uuid.UUID, uid, email, action string) (string, error) {
	switch action {
	case ActionRegister:
		return s.Register(ctx, eventID, uid, email)
	case ActionAttend:
		return s.Attend(ctx, eventID, uid)
	default:
		return "", Invalidf("invalid action")
	}
}

// Register creates a registration and bumps the event's interest counter.
// Registering twice is a conflict regardless of the existing status.
func (s *RegistrationService) Register(ctx context.Context, eventID uuid.UUID, uid, email string) (string, error) {
	txn := s.tracer.StartTransaction("register-for-event")
	defer s.tracer.EndTransaction(txn)

	if uid == "" || email == "" {
		return "", Invalidf("missing uid or email")
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", NotFoundf("event not found")
		}
		s.tracer.RecordError(txn, err)
		return "", errors.Wrap(err, "failed to load event")
	}

	if _, err := s.registrations.GetByEventAndUser(ctx, eventID, uid); err == nil {
		return "", Conflictf("user already registered for this event")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		s.tracer.RecordError(txn, err)
		return "", errors.Wrap(err, "failed to check existing registration")
	}

	reg := &models.Registration{
		ID:           uuid.New(),
		EventID:      eventID,
		UID:          uid,
		Email:        email,
		Status:       models.StatusRegistered,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.registrations.Register(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return "", Conflictf("user already registered for this event")
		}
		s.tracer.RecordError(txn, err)
		return "", errors.Wrap(err, "failed to register")
	}

	log.Info().
		Str("event_id", eventID.String()).
		Str("uid", uid).
		Msg("User registered for event")

	return models.StatusRegistered, nil
}

// Attend marks an existing registration as attended and bumps the event's
// attendance counter. Attended is terminal; the transition never reverses.
func (s *RegistrationService) Attend(ctx context.Context, eventID uuid.UUID, uid string) (string, error) {
	txn := s.tracer.StartTransaction("attend-event")
	defer s.tracer.EndTransaction(txn)

	if uid == "" {
		return "", Invalidf("missing uid")
	}

	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", Invalidf("user is not registered for this event")
		}
		s.tracer.RecordError(txn, err)
		return "", errors.Wrap(err, "failed to load registration")
	}
	if reg.Status == models.StatusAttended {
		return "", Conflictf("user already marked attendance")
	}

	if err := s.registrations.MarkAttended(ctx, eventID, uid, time.Now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return "", Conflictf("user already marked attendance")
		}
		s.tracer.RecordError(txn, err)
		return "", errors.Wrap(err, "failed to mark attendance")
	}

	log.Info().
		Str("event_id", eventID.String()).
		Str("uid", uid).
		Msg("Attendance marked")

	return models.StatusAttended, nil
}

// GetStatus returns the registration status for (event, user); empty string
// means unregistered. Pure read.
func (s *RegistrationService) GetStatus(ctx context.Context, eventID uuid.UUID, uid string) (string, error) {
	if uid == "" {
		return "", Invalidf("missing uid")
	}

	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to load registration")
	}
	return reg.Status, nil
}
