package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/tracing"
)

// Mock repositories for testing

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventRepository) ListStartingSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Registration, error) {
	args := m.Called(ctx, eventID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Register(ctx context.Context, reg *models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRegistrationRepository) MarkAttended(ctx context.Context, eventID uuid.UUID, uid string, at time.Time) error {
	args := m.Called(ctx, eventID, uid, at)
	return args.Error(0)
}

type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Rating, error) {
	args := m.Called(ctx, eventID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRatingRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rating, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]models.Rating), args.Error(1)
}

func (m *MockRatingRepository) Submit(ctx context.Context, rating *models.Rating) (float64, int, error) {
	args := m.Called(ctx, rating)
	return args.Get(0).(float64), args.Get(1).(int), args.Error(2)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Claim(ctx context.Context, entry *models.ReminderOutbox) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReminderOutbox, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReminderOutbox), args.Error(1)
}

func (m *MockOutboxRepository) ListUnsent(ctx context.Context, olderThan time.Time, limit int) ([]models.ReminderOutbox, error) {
	args := m.Called(ctx, olderThan, limit)
	return args.Get(0).([]models.ReminderOutbox), args.Error(1)
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Mock collaborators for testing

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReminder(ctx context.Context, msg *models.ReminderMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockIndexer) RemoveEvent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndexer) SearchEvents(ctx context.Context, query string) ([]map[string]interface{}, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, street, suburb, state, country string) (float64, float64, string, error) {
	args := m.Called(ctx, street, suburb, state, country)
	return args.Get(0).(float64), args.Get(1).(float64), args.String(2), args.Error(3)
}

// noopTracer returns a disabled tracer for tests
func noopTracer() tracing.Tracer {
	return tracing.NewDisabledTracer()
}
