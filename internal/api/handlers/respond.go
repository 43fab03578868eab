package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/services"
)

// respondOK writes the success envelope with the given payload fields
func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondError maps the service error taxonomy onto the error envelope.
// Conflicts ride on 400 like validation failures; the upstream API never
// distinguished them and clients key off the message. Internal errors are
// logged but never echoed verbatim.
func respondError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindValidation, services.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}

// respondBadRequest writes a 400 envelope with a fixed message
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
