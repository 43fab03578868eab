package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/community/services/events/internal/api/middleware"
	"example.com/community/services/events/internal/services"
)

// RatingHandler handles event rating HTTP requests
type RatingHandler struct {
	ratings *services.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// SubmitRatingRequest is the payload for rating submission
type SubmitRatingRequest struct {
	UID    string  `json:"uid"`
	Rating float64 `json:"rating"`
}

// Submit handles POST /events/:id/ratings
func (h *RatingHandler) Submit(c *gin.Context) {
	id, ok := parseEventID(c)
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if user := middleware.SessionUser(c); user != nil && req.UID != user.UID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "uid does not match session"})
		return
	}

	summary, err := h.ratings.SubmitRating(c.Request.Context(), id, req.UID, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"message":     "Rating submitted successfully.",
		"avgRating":   summary.AvgRating,
		"ratingCount": summary.RatingCount,
	})
}

// Get handles GET /events/:id/ratings. The optional uid query selects the
// caller's own rating alongside the aggregate.
func (h *RatingHandler) Get(c *gin.Context) {
	id, ok := parseEventID(c)
	if !ok {
		return
	}

	summary, err := h.ratings.GetRating(c.Request.Context(), id, c.Query("uid"))
	if err != nil {
		respondError(c, err)
		return
	}

	payload := gin.H{
		"avgRating":   summary.AvgRating,
		"ratingCount": summary.RatingCount,
	}
	if summary.UserRating != nil {
		payload["userRating"] = *summary.UserRating
	}
	respondOK(c, payload)
}
