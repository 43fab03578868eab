package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
)

func validEventInput() CreateEventInput {
	return CreateEventInput{
		Title:   "Community BBQ",
		Summary: "Annual BBQ at the park",
		Start:   time.Date(2026, 9, 5, 11, 0, 0, 0, time.UTC),
		Street:  "1 Park Lane",
		Suburb:  "Newtown",
		State:   "NSW",
	}
}

func TestCreateEventHappyPath(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).Return(nil)

	service := NewEventService(mockEvents, nil, nil, nil, noopTracer())
	event, err := service.CreateEvent(context.Background(), validEventInput())

	require.NoError(t, err)
	require.NotNil(t, event)
	require.NotEqual(t, uuid.Nil, event.ID)
	require.Equal(t, "Community BBQ", event.Title)
	require.Zero(t, event.Attendance)
	require.Zero(t, event.Interest)
	require.Zero(t, event.AvgRating)
	require.Zero(t, event.RatingCount)
	mockEvents.AssertExpectations(t)
}

func TestCreateEventMissingFields(t *testing.T) {
	service := NewEventService(new(MockEventRepository), nil, nil, nil, noopTracer())

	cases := []func(*CreateEventInput){
		func(in *CreateEventInput) { in.Title = "" },
		func(in *CreateEventInput) { in.Summary = "" },
		func(in *CreateEventInput) { in.Start = time.Time{} },
		func(in *CreateEventInput) { in.Street = "" },
		func(in *CreateEventInput) { in.Suburb = "" },
		func(in *CreateEventInput) { in.State = "" },
	}
	for _, mutate := range cases {
		input := validEventInput()
		mutate(&input)
		_, err := service.CreateEvent(context.Background(), input)
		require.Error(t, err)
		require.True(t, IsValidation(err))
	}
}

func TestCreateEventRejectsBadImageURL(t *testing.T) {
	service := NewEventService(new(MockEventRepository), nil, nil, nil, noopTracer())

	input := validEventInput()
	input.Image = "ftp://example.com/image.png"

	_, err := service.CreateEvent(context.Background(), input)
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestCreateEventGeocodesWhenNoCoordinates(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockGeo := new(MockGeocoder)

	mockEvents.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockGeo.On("Geocode", mock.Anything, "1 Park Lane", "Newtown", "NSW", "Australia").
		Return(-33.89, 151.18, "Newtown NSW, Australia", nil)

	service := NewEventService(mockEvents, nil, nil, mockGeo, noopTracer())
	event, err := service.CreateEvent(context.Background(), validEventInput())

	require.NoError(t, err)
	require.NotNil(t, event.Lat)
	require.NotNil(t, event.Lng)
	require.Equal(t, -33.89, *event.Lat)
	require.Equal(t, 151.18, *event.Lng)
	mockGeo.AssertExpectations(t)
}

func TestCreateEventSkipsGeocodeWithCoordinates(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockGeo := new(MockGeocoder)
	mockEvents.On("Create", mock.Anything, mock.Anything).Return(nil)

	lat, lng := -33.86, 151.21
	input := validEventInput()
	input.Lat = &lat
	input.Lng = &lng

	service := NewEventService(mockEvents, nil, nil, mockGeo, noopTracer())
	event, err := service.CreateEvent(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, -33.86, *event.Lat)
	mockGeo.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEventSurvivesGeocodeFailure(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockGeo := new(MockGeocoder)

	mockEvents.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockGeo.On("Geocode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0.0, 0.0, "", context.DeadlineExceeded)

	service := NewEventService(mockEvents, nil, nil, mockGeo, noopTracer())
	event, err := service.CreateEvent(context.Background(), validEventInput())

	require.NoError(t, err)
	require.Nil(t, event.Lat)
	require.Nil(t, event.Lng)
}

func TestCreateEventIndexFailureIsNotFatal(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockIndexer := new(MockIndexer)

	mockEvents.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockIndexer.On("IndexEvent", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

	service := NewEventService(mockEvents, nil, mockIndexer, nil, noopTracer())
	_, err := service.CreateEvent(context.Background(), validEventInput())

	require.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

func TestDeleteEventHappyPath(t *testing.T) {
	eventID := uuid.New()
	mockEvents := new(MockEventRepository)
	mockIndexer := new(MockIndexer)

	mockEvents.On("GetByID", mock.Anything, eventID).Return(&models.Event{ID: eventID}, nil)
	mockEvents.On("DeleteCascade", mock.Anything, eventID).Return(nil)
	mockIndexer.On("RemoveEvent", mock.Anything, eventID).Return(nil)

	service := NewEventService(mockEvents, nil, mockIndexer, nil, noopTracer())
	err := service.DeleteEvent(context.Background(), eventID)

	require.NoError(t, err)
	mockEvents.AssertExpectations(t)
	mockIndexer.AssertExpectations(t)
}

func TestDeleteEventNotFound(t *testing.T) {
	eventID := uuid.New()
	mockEvents := new(MockEventRepository)
	mockEvents.On("GetByID", mock.Anything, eventID).Return(nil, repositories.ErrNotFound)

	service := NewEventService(mockEvents, nil, nil, nil, noopTracer())
	err := service.DeleteEvent(context.Background(), eventID)

	require.Error(t, err)
	require.True(t, IsNotFound(err))
	mockEvents.AssertNotCalled(t, "DeleteCascade", mock.Anything, mock.Anything)
}

func TestRecentEvents(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockEvents.On("ListRecent", mock.Anything, 3).Return([]models.Event{{Title: "A"}, {Title: "B"}}, nil)

	service := NewEventService(mockEvents, nil, nil, nil, noopTracer())
	events, err := service.RecentEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)
	mockEvents.AssertExpectations(t)
}

func TestSearchEventsEmptyQuery(t *testing.T) {
	service := NewEventService(new(MockEventRepository), nil, new(MockIndexer), nil, noopTracer())

	_, err := service.SearchEvents(context.Background(), "")
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestSearchEventsDelegatesToIndexer(t *testing.T) {
	mockIndexer := new(MockIndexer)
	mockIndexer.On("SearchEvents", mock.Anything, "bbq").
		Return([]map[string]interface{}{{"title": "Community BBQ"}}, nil)

	service := NewEventService(new(MockEventRepository), nil, mockIndexer, nil, noopTracer())
	docs, err := service.SearchEvents(context.Background(), "bbq")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	mockIndexer.AssertExpectations(t)
}

func TestSeedSampleEventsCreatesTen(t *testing.T) {
	mockEvents := new(MockEventRepository)
	var seeded []*models.Event
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).
		Run(func(args mock.Arguments) {
			seeded = append(seeded, args.Get(1).(*models.Event))
		}).
		Return(nil)

	service := NewEventService(mockEvents, nil, nil, nil, noopTracer())
	count, err := service.SeedSampleEvents(context.Background())

	require.NoError(t, err)
	require.Equal(t, 10, count)
	require.Len(t, seeded, 10)

	now := time.Now().UTC()
	for i, event := range seeded[:5] {
		require.Equal(t, fmt.Sprintf("Past Event %d", i+1), event.Title)
		require.True(t, event.Start.Before(now))
		require.GreaterOrEqual(t, event.Attendance, 10)
		require.GreaterOrEqual(t, event.Interest, 20)
		require.GreaterOrEqual(t, event.AvgRating, 3.0)
		require.LessOrEqual(t, event.AvgRating, 5.0)
		require.GreaterOrEqual(t, event.RatingCount, 1)
		require.NotNil(t, event.Lat)
		require.NotNil(t, event.Lng)
	}
	for i, event := range seeded[5:] {
		require.Equal(t, fmt.Sprintf("Upcoming Event %d", i+1), event.Title)
		require.True(t, event.Start.After(now))
		require.Zero(t, event.AvgRating)
		require.Zero(t, event.RatingCount)
		require.GreaterOrEqual(t, event.Interest, 10)
	}
}

func TestSeedSampleEventsStopsOnCreateFailure(t *testing.T) {
	mockEvents := new(MockEventRepository)
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).
		Return(nil).Once()
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).
		Return(errors.New("insert failed"))

	service := NewEventService(mockEvents, nil, nil, nil, noopTracer())
	count, err := service.SeedSampleEvents(context.Background())

	require.Error(t, err)
	require.Equal(t, 1, count)
}
