package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/community/services/events/internal/models"
)

// Sentinel errors surfaced by repositories. Services translate these into
// the API error taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// EventRepository provides access to event documents
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListRecent(ctx context.Context, limit int) ([]models.Event, error)
	ListStartingSince(ctx context.Context, since time.Time) ([]models.Event, error)
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// RegistrationRepository provides access to event registrations
type RegistrationRepository interface {
	GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
	Register(ctx context.Context, reg *models.Registration) error
	MarkAttended(ctx context.Context, eventID uuid.UUID, uid string, at time.Time) error
}

// RatingRepository provides access to per-user event ratings
type RatingRepository interface {
	GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Rating, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rating, error)
	Submit(ctx context.Context, rating *models.Rating) (float64, int, error)
}

// UserRepository provides access to identity records
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, uid string) error
}

// OutboxRepository provides access to the reminder outbox
type OutboxRepository interface {
	Claim(ctx context.Context, entry *models.ReminderOutbox) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReminderOutbox, error)
	ListUnsent(ctx context.Context, olderThan time.Time, limit int) ([]models.ReminderOutbox, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// eventRepository implements EventRepository over GORM
type eventRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db, readOnlyDB *gorm.DB) EventRepository {
	return &eventRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(event).Error, "failed to create event")
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.readOnlyDB.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get event by ID")
	}
	return &event, nil
}

func (r *eventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Order("start DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent events")
	}
	return events, nil
}

func (r *eventRepository) ListStartingSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("start >= ?", since).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events by start window")
	}
	return events, nil
}

func (r *eventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("start >= ? AND start <= ?", from, to).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events by start range")
	}
	return events, nil
}

// DeleteCascade removes an event and its child records in one transaction.
// Children go first so a failure can never orphan them; each phase is named
// in the wrapped error.
func (r *eventRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return errors.Wrap(err, "cascade delete failed in ratings phase")
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return errors.Wrap(err, "cascade delete failed in registrations phase")
		}
		result := tx.Delete(&models.Event{}, "id = ?", id)
		if result.Error != nil {
			return errors.Wrap(result.Error, "cascade delete failed in event phase")
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// registrationRepository implements RegistrationRepository over GORM
type registrationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db, readOnlyDB *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *registrationRepository) GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Registration, error) {
	var reg models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ? AND uid = ?", eventID, uid).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get registration")
	}
	return &reg, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&regs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list registrations")
	}
	return regs, nil
}

// Register creates the registration and bumps the parent event's interest
// counter in the same transaction. The composite unique index turns a
// concurrent double-register into ErrDuplicate rather than a double count.
func (r *registrationRepository) Register(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(reg)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to create registration")
		}
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}
		err := tx.Model(&models.Event{}).
			Where("id = ?", reg.EventID).
			UpdateColumn("interest", gorm.Expr("interest + 1")).Error
		return errors.Wrap(err, "failed to increment event interest")
	})
}

// MarkAttended flips the registration to attended and bumps the parent
// event's attendance counter in the same transaction. The status guard in
// the WHERE clause keeps the transition one-way and exactly-once.
func (r *registrationRepository) MarkAttended(ctx context.Context, eventID uuid.UUID, uid string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Registration{}).
			Where("event_id = ? AND uid = ? AND status = ?", eventID, uid, models.StatusRegistered).
			Updates(map[string]interface{}{
				"status":      models.StatusAttended,
				"attended_at": at,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to mark registration attended")
		}
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}
		err := tx.Model(&models.Event{}).
			Where("id = ?", eventID).
			UpdateColumn("attendance", gorm.Expr("attendance + 1")).Error
		return errors.Wrap(err, "failed to increment event attendance")
	})
}

// ratingRepository implements RatingRepository over GORM
type ratingRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db, readOnlyDB *gorm.DB) RatingRepository {
	return &ratingRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *ratingRepository) GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Rating, error) {
	var rating models.Rating
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ? AND uid = ?", eventID, uid).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get rating")
	}
	return &rating, nil
}

func (r *ratingRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&ratings).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ratings")
	}
	return ratings, nil
}

// Submit inserts the rating, re-reads the full rating set and writes the
// recomputed aggregate back to the event, all inside one transaction so the
// cached aggregate can never drop a concurrent submission.
func (r *ratingRepository) Submit(ctx context.Context, rating *models.Rating) (float64, int, error) {
	var avg float64
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rating)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to create rating")
		}
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}

		var ratings []models.Rating
		if err := tx.Where("event_id = ?", rating.EventID).Find(&ratings).Error; err != nil {
			return errors.Wrap(err, "failed to re-read ratings for aggregate")
		}
		avg, count = models.AggregateRatings(ratings)

		err := tx.Model(&models.Event{}).
			Where("id = ?", rating.EventID).
			Updates(map[string]interface{}{
				"avg_rating":   avg,
				"rating_count": count,
			}).Error
		return errors.Wrap(err, "failed to update event aggregate")
	})
	if err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

// userRepository implements UserRepository over GORM
type userRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db, readOnlyDB *gorm.DB) UserRepository {
	return &userRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			UpdateAll: true,
		}).
		Create(user).Error
	return errors.Wrap(err, "failed to upsert user")
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.readOnlyDB.WithContext(ctx).Order("created_at").Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "uid = ?", uid)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// outboxRepository implements OutboxRepository over GORM
type outboxRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewOutboxRepository creates a new reminder outbox repository
func NewOutboxRepository(db, readOnlyDB *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db, readOnlyDB: readOnlyDB}
}

// Claim inserts the outbox row for (event, email, window date). It returns
// false when another sweep already claimed the same reminder.
func (r *outboxRepository) Claim(ctx context.Context, entry *models.ReminderOutbox) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to claim reminder outbox entry")
	}
	return result.RowsAffected > 0, nil
}

func (r *outboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReminderOutbox, error) {
	var entry models.ReminderOutbox
	err := r.readOnlyDB.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get reminder outbox entry")
	}
	return &entry, nil
}

// ListUnsent returns claimed reminders that never got a sent stamp, used by
// the sweep's fallback pass to republish after a failed delivery.
func (r *outboxRepository) ListUnsent(ctx context.Context, olderThan time.Time, limit int) ([]models.ReminderOutbox, error) {
	var entries []models.ReminderOutbox
	err := r.readOnlyDB.WithContext(ctx).
		Where("sent_at IS NULL AND created_at < ?", olderThan).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unsent reminders")
	}
	return entries, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReminderOutbox{}).
		Where("id = ?", id).
		Update("sent_at", at)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark reminder as sent")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
