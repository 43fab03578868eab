package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/community/services/events/internal/services"
)

// EventHandler handles event lifecycle HTTP requests
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// parseEventID extracts and validates the event id path parameter
func parseEventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// CreateEventRequest is the payload for event creation
type CreateEventRequest struct {
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	Street  string    `json:"street"`
	Suburb  string    `json:"suburb"`
	State   string    `json:"state"`
	Image   string    `json:"image"`
	Lat     *float64  `json:"lat"`
	Lng     *float64  `json:"lng"`
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), services.CreateEventInput{
		Title:   req.Title,
		Summary: req.Summary,
		Start:   req.Start,
		Street:  req.Street,
		Suburb:  req.Suburb,
		State:   req.State,
		Image:   req.Image,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"id":      event.ID.String(),
		"message": "Event created successfully.",
	})
}

// Recent handles GET /events/recent
func (h *EventHandler) Recent(c *gin.Context) {
	events, err := h.events.RecentEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"events": events})
}

// Search handles GET /events/search
func (h *EventHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "missing query")
		return
	}

	docs, err := h.events.SearchEvents(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"events": docs})
}

// Delete handles DELETE /events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := parseEventID(c)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"message": fmt.Sprintf("Event %s deleted successfully.", id)})
}
