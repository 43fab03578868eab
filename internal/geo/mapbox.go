package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"example.com/community/services/events/config"
)

// ErrNoResults is returned when the geocoder finds nothing for an address
var ErrNoResults = errors.New("no geocoding results found")

// MapboxClient resolves street addresses via the Mapbox geocoding API. No
// retry policy: a failed call surfaces immediately.
type MapboxClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewMapboxClient creates a new geocoding client
func NewMapboxClient(cfg config.MapboxConfig) (*MapboxClient, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("Mapbox access token is empty")
	}
	return &MapboxClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.AccessToken,
	}, nil
}

type geocodeResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		PlaceName string    `json:"place_name"`
	} `json:"features"`
}

// Geocode resolves an address to coordinates. The first feature wins.
func (c *MapboxClient) Geocode(ctx context.Context, street, suburb, state, country string) (float64, float64, string, error) {
	if street == "" || suburb == "" || state == "" || country == "" {
		return 0, 0, "", errors.New("missing address components")
	}

	query := url.PathEscape(fmt.Sprintf("%s, %s, %s, %s", street, suburb, state, country))
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s",
		c.baseURL, query, url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, "", errors.Wrap(err, "failed to build geocoding request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, "", errors.Wrap(err, "failed to call geocoding API")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, 0, "", errors.Errorf("geocoding API returned status %d", res.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return 0, 0, "", errors.Wrap(err, "failed to decode geocoding response")
	}

	if len(payload.Features) == 0 || len(payload.Features[0].Center) < 2 {
		return 0, 0, "", ErrNoResults
	}

	feature := payload.Features[0]
	// Mapbox centers are [lng, lat]
	return feature.Center[1], feature.Center[0], feature.PlaceName, nil
}
