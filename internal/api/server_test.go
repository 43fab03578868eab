package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/metrics"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
	"example.com/community/services/events/internal/services"
	"example.com/community/services/events/internal/tracing"
)

// stubEventRepository serves a fixed event list for router-level tests
type stubEventRepository struct {
	events []models.Event
}

func (s *stubEventRepository) Create(ctx context.Context, event *models.Event) error { return nil }
func (s *stubEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return nil, nil
}
func (s *stubEventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	return s.events, nil
}
func (s *stubEventRepository) ListStartingSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	return s.events, nil
}
func (s *stubEventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	return s.events, nil
}
func (s *stubEventRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error { return nil }

// stubRegistrationRepository serves a fixed registration set; pairs not in
// the map read as unregistered
type stubRegistrationRepository struct {
	regs map[string]*models.Registration
}

func (s *stubRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID uuid.UUID, uid string) (*models.Registration, error) {
	if reg, ok := s.regs[uid]; ok {
		return reg, nil
	}
	return nil, repositories.ErrNotFound
}
func (s *stubRegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	return nil, nil
}
func (s *stubRegistrationRepository) Register(ctx context.Context, reg *models.Registration) error {
	return nil
}
func (s *stubRegistrationRepository) MarkAttended(ctx context.Context, eventID uuid.UUID, uid string, at time.Time) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)

	repo := &stubEventRepository{events: []models.Event{
		{ID: uuid.New(), Title: "Community BBQ", Start: time.Now().UTC(), Attendance: 4, Interest: 9},
	}}

	regRepo := &stubRegistrationRepository{regs: map[string]*models.Registration{
		"user-registered": {UID: "user-registered", Status: models.StatusRegistered},
	}}

	svcs := Services{
		Events:        services.NewEventService(repo, nil, nil, nil, tracer),
		Registrations: services.NewRegistrationService(repo, regRepo, tracer),
		Reports:       services.NewReportService(repo, nil),
	}
	return NewServer(&config.Config{ServerAddress: "127.0.0.1:0", ServerTimeout: 5 * time.Second}, svcs, metrics.NewCollector(), tracer)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/nope")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodPut, "/api/v1/charts/daily-totals")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "method not allowed", body["message"])
}

func TestPreflightShortCircuits(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodOptions, "/api/v1/events/recent")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecentEventsRoute(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/events/recent")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool           `json:"success"`
		Events  []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Events, 1)
	require.Equal(t, "Community BBQ", body.Events[0].Title)
}

func TestDailyTotalsRoute(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/charts/daily-totals")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    []services.DailyTotal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, 4, body.Data[0].TotalAttendance)
	require.Equal(t, 9, body.Data[0].TotalInterest)
}

func TestDailyTotalsRejectsBadWindow(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/charts/daily-totals?days=abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationStatusNullWhenUnregistered(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/events/"+uuid.New().String()+"/registrations/user-unknown")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Contains(t, body, "status")
	require.Nil(t, body["status"])
}

func TestRegistrationStatusRegistered(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodGet, "/api/v1/events/"+uuid.New().String()+"/registrations/user-registered")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, models.StatusRegistered, body["status"])
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	server := newTestServer(t)

	doRequest(server, http.MethodGet, "/health")
	w := doRequest(server, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Counters map[string]int64 `json:"counters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.GreaterOrEqual(t, body.Counters["http_requests"], int64(1))
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(server, http.MethodPost, "/api/v1/events")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
