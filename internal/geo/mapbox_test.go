package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"example.com/community/services/events/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *MapboxClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewMapboxClient(config.MapboxConfig{
		BaseURL:     server.URL,
		AccessToken: "test-token",
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestGeocodeParsesCenterOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		// Mapbox centers are [lng, lat]
		w.Write([]byte(`{"features":[{"center":[151.18,-33.89],"place_name":"Newtown NSW, Australia"}]}`))
	})

	lat, lng, placeName, err := client.Geocode(context.Background(), "1 Park Lane", "Newtown", "NSW", "Australia")

	require.NoError(t, err)
	require.Equal(t, -33.89, lat)
	require.Equal(t, 151.18, lng)
	require.Equal(t, "Newtown NSW, Australia", placeName)
}

func TestGeocodeNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	})

	_, _, _, err := client.Geocode(context.Background(), "1 Nowhere St", "Nowhere", "XX", "Australia")
	require.True(t, errors.Is(err, ErrNoResults))
}

func TestGeocodeUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, _, err := client.Geocode(context.Background(), "1 Park Lane", "Newtown", "NSW", "Australia")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoResults))
}

func TestGeocodeMissingComponents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, _, _, err := client.Geocode(context.Background(), "", "Newtown", "NSW", "Australia")
	require.Error(t, err)
}

func TestNewMapboxClientRequiresToken(t *testing.T) {
	_, err := NewMapboxClient(config.MapboxConfig{BaseURL: "https://api.mapbox.com"})
	require.Error(t, err)
}
