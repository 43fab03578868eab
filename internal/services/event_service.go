package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/cache"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/tracing"
)

const recentEventsLimit = 3

var imageURLPattern = regexp.MustCompile(`^https?://.+`)

// EventIndexer maintains the event search index
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	RemoveEvent(ctx context.Context, id uuid.UUID) error
	SearchEvents(ctx context.Context, query string) ([]map[string]interface{}, error)
}

// Geocoder resolves a street address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, street, suburb, state, country string) (lat, lng float64, placeName string, err error)
}

// CreateEventInput carries the fields accepted on event creation
type CreateEventInput struct {
	Title   string
	Summary string
	Start   time.Time
	Street  string
	Suburb  string
	State   string
	Image   string
	Lat     *float64
	Lng     *float64
}

// EventService handles the event lifecycle: creation, listing, search
// indexing and cascading deletion.
type EventService struct {
	events   repositories.EventRepository
	cache    *cache.RedisCache
	indexer  EventIndexer
	geocoder Geocoder
	tracer   tracing.Tracer
}

// NewEventService creates a new event service
func NewEventService(
	events repositories.EventRepository,
	redisCache *cache.RedisCache,
	indexer EventIndexer,
	geocoder Geocoder,
	tracer tracing.Tracer,
) *EventService {
	return &EventService{
		events:   events,
		cache:    redisCache,
		indexer:  indexer,
		geocoder: geocoder,
		tracer:   tracer,
	}
}

// CreateEvent validates and persists a new event with zeroed counters. The
// address is geocoded when the client sent no coordinates, and the event is
// pushed into the search index; both are best effort.
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	txn := s.tracer.StartTransaction("create-event")
	defer s.tracer.EndTransaction(txn)

	if input.Title == "" || input.Summary == "" || input.Start.IsZero() ||
		input.Street == "" || input.Suburb == "" || input.State == "" {
		return nil, Invalidf("missing required fields: title, summary, start, location")
	}
	if input.Image != "" && !imageURLPattern.MatchString(input.Image) {
		return nil, Invalidf("invalid image URL")
	}

	event := &models.Event{
		ID:      uuid.New(),
		Title:   input.Title,
		Summary: input.Summary,
		Start:   input.Start,
		Street:  input.Street,
		Suburb:  input.Suburb,
		State:   input.State,
		Image:   input.Image,
		Lat:     input.Lat,
		Lng:     input.Lng,
	}

	if event.Lat == nil || event.Lng == nil {
		if s.geocoder != nil {
			span := s.tracer.StartSpan("geocode-address", txn)
			lat, lng, _, err := s.geocoder.Geocode(ctx, event.Street, event.Suburb, event.State, "Australia")
			span.End()
			if err != nil {
				log.Warn().Err(err).Str("suburb", event.Suburb).Msg("Failed to geocode event address")
			} else {
				event.Lat = &lat
				event.Lng = &lng
			}
		}
	}

	span := s.tracer.StartSpan("persist-event", txn)
	err := s.events.Create(ctx, event)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to create event")
	}

	if s.indexer != nil {
		span := s.tracer.StartSpan("index-event", txn)
		err := s.indexer.IndexEvent(ctx, event)
		span.End()
		if err != nil {
			log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("Failed to index event")
		}
	}

	log.Info().
		Str("event_id", event.ID.String()).
		Str("title", event.Title).
		Time("start", event.Start).
		Msg("Event created")

	return event, nil
}

// DeleteEvent removes the event and all child registrations and ratings.
// Children are deleted before the parent inside one transaction, so a
// partial failure surfaces the failed phase instead of leaving orphans.
func (s *EventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	txn := s.tracer.StartTransaction("delete-event")
	defer s.tracer.EndTransaction(txn)

	if _, err := s.events.GetByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFoundf("event not found")
		}
		s.tracer.RecordError(txn, err)
		return errors.Wrap(err, "failed to load event")
	}

	if err := s.events.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFoundf("event not found")
		}
		s.tracer.RecordError(txn, err)
		return errors.Wrap(err, "failed to delete event")
	}

	if err := s.cache.Delete(ctx, cache.EventAggregateKey(id)); err != nil {
		log.Warn().Err(err).Str("event_id", id.String()).Msg("Failed to invalidate aggregate cache")
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveEvent(ctx, id); err != nil {
			log.Warn().Err(err).Str("event_id", id.String()).Msg("Failed to remove event from search index")
		}
	}

	log.Info().Str("event_id", id.String()).Msg("Event deleted")
	return nil
}

// seedLocations are the fixed Melbourne addresses sample events cycle through
var seedLocations = []struct {
	street, suburb, state string
	lat, lng              float64
}{
	{"123 Lygon St", "Carlton", "VIC", -37.8002, 144.966},
	{"45 Swanston St", "Melbourne", "VIC", -37.818, 144.967},
	{"78 Chapel St", "Prahran", "VIC", -37.851, 144.993},
	{"12 Glenferrie Rd", "Hawthorn", "VIC", -37.821, 145.035},
	{"90 Bay St", "Port Melbourne", "VIC", -37.839, 144.94},
}

// SeedSampleEvents populates the store with ten sample events for local
// development: five past events (2-6 days ago) with randomized engagement
// counters and ratings, five upcoming (1-5 days ahead) with zeroed ratings.
// Returns the number created.
func (s *EventService) SeedSampleEvents(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	created := 0

	for i := 0; i < 5; i++ {
		loc := seedLocations[i%len(seedLocations)]
		lat, lng := loc.lat, loc.lng
		event := &models.Event{
			ID:          uuid.New(),
			Title:       fmt.Sprintf("Past Event %d", i+1),
			Summary:     fmt.Sprintf("A fun past event held recently in %s.", loc.suburb),
			Start:       now.AddDate(0, 0, -(i + 2)),
			Street:      loc.street,
			Suburb:      loc.suburb,
			State:       loc.state,
			Lat:         &lat,
			Lng:         &lng,
			Attendance:  rand.Intn(30) + 10,
			Interest:    rand.Intn(50) + 20,
			AvgRating:   math.Round((rand.Float64()*2+3)*10) / 10,
			RatingCount: rand.Intn(10) + 1,
		}
		if err := s.events.Create(ctx, event); err != nil {
			return created, errors.Wrap(err, "failed to seed past event")
		}
		created++
	}

	for i := 0; i < 5; i++ {
		loc := seedLocations[i%len(seedLocations)]
		lat, lng := loc.lat, loc.lng
		event := &models.Event{
			ID:         uuid.New(),
			Title:      fmt.Sprintf("Upcoming Event %d", i+1),
			Summary:    fmt.Sprintf("An exciting event happening soon in %s!", loc.suburb),
			Start:      now.AddDate(0, 0, i+1),
			Street:     loc.street,
			Suburb:     loc.suburb,
			State:      loc.state,
			Lat:        &lat,
			Lng:        &lng,
			Attendance: rand.Intn(20),
			Interest:   rand.Intn(80) + 10,
		}
		if err := s.events.Create(ctx, event); err != nil {
			return created, errors.Wrap(err, "failed to seed upcoming event")
		}
		created++
	}

	log.Info().Int("count", created).Msg("Sample events created")
	return created, nil
}

// RecentEvents returns the latest events by start time, newest first
func (s *EventService) RecentEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.ListRecent(ctx, recentEventsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent events")
	}
	return events, nil
}

// SearchEvents runs a full-text query against the search index
func (s *EventService) SearchEvents(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if query == "" {
		return nil, Invalidf("missing query")
	}
	if s.indexer == nil {
		return nil, errors.New("search is not available")
	}
	docs, err := s.indexer.SearchEvents(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search events")
	}
	return docs, nil
}
