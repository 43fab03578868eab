package services

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/cache"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
)

// DefaultWindowDays is the trailing window for the attendance chart
const DefaultWindowDays = 15

const dailyTotalsCacheTTL = time.Minute

// DailyTotal is one date bucket of summed engagement counters
type DailyTotal struct {
	Date            string `json:"date"`
	TotalAttendance int    `json:"totalAttendance"`
	TotalInterest   int    `json:"totalInterest"`
}

// ReportService produces point-in-time engagement aggregations for charting
type ReportService struct {
	events repositories.EventRepository
	cache  *cache.RedisCache
}

// NewReportService creates a new report service
func NewReportService(events repositories.EventRepository, redisCache *cache.RedisCache) *ReportService {
	return &ReportService{events: events, cache: redisCache}
}

// DailyTotals sums attendance and interest per UTC calendar date over events
// whose start falls within the trailing window. The upper bound is open, so
// future-dated events inside the window are included. An empty window yields
// an empty slice.
func (s *ReportService) DailyTotals(ctx context.Context, windowDays int) ([]DailyTotal, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	key := cache.DailyTotalsKey(windowDays)
	var cached []DailyTotal
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	events, err := s.events.ListStartingSince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load events for chart window")
	}

	totals := BucketDailyTotals(events)

	if err := s.cache.Set(ctx, key, totals, dailyTotalsCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache daily totals")
	}

	return totals, nil
}

// BucketDailyTotals groups events by the UTC date portion of their start and
// sums the engagement counters, ascending by date.
func BucketDailyTotals(events []models.Event) []DailyTotal {
	buckets := make(map[string]*DailyTotal)
	for _, e := range events {
		date := e.Start.UTC().Format("2006-01-02")
		bucket, ok := buckets[date]
		if !ok {
			bucket = &DailyTotal{Date: date}
			buckets[date] = bucket
		}
		bucket.TotalAttendance += e.Attendance
		bucket.TotalInterest += e.Interest
	}

	totals := make([]DailyTotal, 0, len(buckets))
	for _, bucket := range buckets {
		totals = append(totals, *bucket)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date < totals[j].Date
	})
	return totals
}
