package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Registration statuses
const (
	StatusRegistered = "registered"
	StatusAttended   = "attended"
)

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Rating bounds enforced on submission
const (
	MinRating = 1
	MaxRating = 5
)

// Event represents a scheduled community gathering
type Event struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Summary       string         `gorm:"not null" json:"summary"`
	Start         time.Time      `gorm:"not null;index" json:"start"`
	Street        string         `gorm:"not null" json:"street"`
	Suburb        string         `gorm:"not null" json:"suburb"`
	State         string         `gorm:"not null" json:"state"`
	Lat           *float64       `json:"lat"`
	Lng           *float64       `json:"lng"`
	Image         string         `json:"image"`
	Attendance    int            `gorm:"not null;default:0" json:"attendance"`
	Interest      int            `gorm:"not null;default:0" json:"interest"`
	AvgRating     float64        `gorm:"not null;default:0" json:"avgRating"`
	RatingCount   int            `gorm:"not null;default:0" json:"ratingCount"`
	Registrations []Registration `gorm:"foreignKey:EventID" json:"-"`
	Ratings       []Rating       `gorm:"foreignKey:EventID" json:"-"`
}

// Registration is a user's commitment to attend an event. At most one
// exists per (event, user); status only ever moves registered -> attended.
type Registration struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	EventID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_event_user" json:"event_id"`
	UID          string         `gorm:"column:uid;not null;uniqueIndex:idx_registrations_event_user" json:"uid"`
	Email        string         `gorm:"not null" json:"email"`
	Status       string         `gorm:"not null" json:"status"`
	RegisteredAt time.Time      `gorm:"not null" json:"registeredAt"`
	AttendedAt   *time.Time     `json:"attendedAt"`
}

// Rating is a single user's immutable evaluation of an event
type Rating struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	EventID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_event_user" json:"event_id"`
	UID       string         `gorm:"column:uid;not null;uniqueIndex:idx_ratings_event_user" json:"uid"`
	Value     float64        `gorm:"not null" json:"rating"`
}

// User is owned by the identity system; this service reads role and existence
type User struct {
	UID       string    `gorm:"column:uid;primaryKey" json:"uid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `gorm:"not null" json:"email"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Role      string    `gorm:"not null;default:member" json:"role"`
}

// ReminderOutbox records one reminder per (event, recipient, window day).
// A row is claimed before publishing; SentAt is stamped after delivery, so
// a retried sweep never produces a duplicate send.
type ReminderOutbox struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	EventID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_outbox_event_email_window" json:"event_id"`
	Email      string     `gorm:"not null;uniqueIndex:idx_outbox_event_email_window" json:"email"`
	WindowDate string     `gorm:"not null;uniqueIndex:idx_outbox_event_email_window" json:"window_date"`
	EventTitle string     `json:"event_title"`
	EventStart time.Time  `json:"event_start"`
	SentAt     *time.Time `json:"sent_at"`
}

// ReminderMessage is the queue payload for one reminder delivery
type ReminderMessage struct {
	OutboxID   uuid.UUID `json:"outbox_id"`
	EventID    uuid.UUID `json:"event_id"`
	Email      string    `json:"email"`
	EventTitle string    `json:"event_title"`
	EventStart time.Time `json:"event_start"`
}

// AggregateRatings computes the arithmetic mean and count of a rating set.
// An empty set yields (0, 0).
func AggregateRatings(ratings []Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Value
	}
	return sum / float64(len(ratings)), len(ratings)
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Event{},
		&Registration{},
		&Rating{},
		&ReminderOutbox{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
