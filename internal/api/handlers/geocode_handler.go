package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"example.com/community/services/events/internal/geo"
	"example.com/community/services/events/internal/services"
)

// GeocodeHandler handles forward geocoding HTTP requests
type GeocodeHandler struct {
	geocoder services.Geocoder
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder services.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// GeocodeRequest is the payload for address resolution
type GeocodeRequest struct {
	Street  string `json:"street"`
	Suburb  string `json:"suburb"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Geocode handles POST /geocode
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "geocoding is not configured"})
		return
	}

	var req GeocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Suburb == "" && req.Street == "" {
		respondBadRequest(c, "missing address fields")
		return
	}
	if req.Country == "" {
		req.Country = "Australia"
	}

	lat, lng, placeName, err := h.geocoder.Geocode(c.Request.Context(), req.Street, req.Suburb, req.State, req.Country)
	if err != nil {
		if errors.Is(err, geo.ErrNoResults) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "no results found for address"})
			return
		}
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"lat":        lat,
		"lng":        lng,
		"place_name": placeName,
	})
}
