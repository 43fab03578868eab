package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/cache"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/tracing"
)

// RatingSummary is the aggregate pair returned to clients, plus the caller's
// own rating on reads when a uid is supplied.
type RatingSummary struct {
	AvgRating   float64  `json:"avgRating"`
	RatingCount int      `json:"ratingCount"`
	UserRating  *float64 `json:"userRating"`
}

const aggregateCacheTTL = time.Minute

// RatingService records one rating per user per event and keeps the event's
// cached aggregate in step with the rating set.
type RatingService struct {
	events  repositories.EventRepository
	ratings repositories.RatingRepository
	cache   *cache.RedisCache
	tracer  tracing.Tracer
}

// NewRatingService creates a new rating service
func NewRatingService(
	events repositories.EventRepository,
	ratings repositories.RatingRepository,
	redisCache *cache.RedisCache,
	tracer tracing.Tracer,
) *RatingService {
	return &RatingService{
		events:  events,
		ratings: ratings,
		cache:   redisCache,
		tracer:  tracer,
	}
}

// SubmitRating records a user's rating for an event and returns the freshly
// recomputed aggregate. Ratings are immutable: a second submission for the
// same (event, user) is a conflict and leaves the aggregate untouched.
func (s *RatingService) SubmitRating(ctx context.Context, eventID uuid.UUID, uid string, value float64) (*RatingSummary, error) {
	txn := s.tracer.StartTransaction("submit-rating")
	defer s.tracer.EndTransaction(txn)

	if uid == "" {
		return nil, Invalidf("missing uid")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, Invalidf("rating must be a finite number")
	}
	if value < models.MinRating || value > models.MaxRating {
		return nil, Invalidf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}

	span := s.tracer.StartSpan("load-event", txn)
	_, err := s.events.GetByID(ctx, eventID)
	span.End()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundf("event not found")
		}
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to load event")
	}

	if _, err := s.ratings.GetByEventAndUser(ctx, eventID, uid); err == nil {
		return nil, Conflictf("user already rated this event")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to check existing rating")
	}

	rating := &models.Rating{
		ID:      uuid.New(),
		EventID: eventID,
		UID:     uid,
		Value:   value,
	}

	span = s.tracer.StartSpan("submit-and-recalculate", txn)
	avg, count, err := s.ratings.Submit(ctx, rating)
	span.End()
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Conflictf("user already rated this event")
		}
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to submit rating")
	}

	if err := s.cache.Delete(ctx, cache.EventAggregateKey(eventID)); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("Failed to invalidate aggregate cache")
	}

	log.Info().
		Str("event_id", eventID.String()).
		Str("uid", uid).
		Float64("avg_rating", avg).
		Int("rating_count", count).
		Msg("Rating submitted")

	return &RatingSummary{AvgRating: avg, RatingCount: count}, nil
}

// GetRating returns the event's aggregate pair and, when uid is supplied,
// that user's own rating (nil if none). Pure read.
func (s *RatingService) GetRating(ctx context.Context, eventID uuid.UUID, uid string) (*RatingSummary, error) {
	if uid == "" {
		var cached RatingSummary
		if err := s.cache.Get(ctx, cache.EventAggregateKey(eventID), &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundf("event not found")
		}
		return nil, errors.Wrap(err, "failed to load event")
	}

	summary := &RatingSummary{
		AvgRating:   event.AvgRating,
		RatingCount: event.RatingCount,
	}

	if uid != "" {
		rating, err := s.ratings.GetByEventAndUser(ctx, eventID, uid)
		switch {
		case err == nil:
			summary.UserRating = &rating.Value
		case errors.Is(err, repositories.ErrNotFound):
			// no personal rating yet
		default:
			return nil, errors.Wrap(err, "failed to load user rating")
		}
		return summary, nil
	}

	if err := s.cache.Set(ctx, cache.EventAggregateKey(eventID), summary, aggregateCacheTTL); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("Failed to cache aggregate")
	}

	return summary, nil
}
