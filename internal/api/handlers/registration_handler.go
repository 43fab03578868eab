package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/community/services/events/internal/api/middleware"
	"example.com/community/services/events/internal/services"
)

// RegistrationHandler handles registration and attendance HTTP requests
type RegistrationHandler struct {
	registrations *services.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// ActionRequest is the payload for registration state transitions
type ActionRequest struct {
	UID    string `json:"uid"`
	Email  string `json:"email"`
	Action string `json:"action"`
}

// Action handles POST /events/:id/registrations, dispatching on the action
// field to either register or attend.
func (h *RegistrationHandler) Action(c *gin.Context) {
	id, ok := parseEventID(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if user := middleware.SessionUser(c); user != nil && req.UID != user.UID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "uid does not match session"})
		return
	}

	status, err := h.registrations.HandleAction(c.Request.Context(), id, req.UID, req.Email, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "User registered successfully"
	if req.Action == services.ActionAttend {
		message = "Attendance recorded successfully"
	}
	respondOK(c, gin.H{"message": message, "status": status})
}

// Status handles GET /events/:id/registrations/:uid
func (h *RegistrationHandler) Status(c *gin.Context) {
	id, ok := parseEventID(c)
	if !ok {
		return
	}

	uid := c.Param("uid")
	if uid == "" {
		respondBadRequest(c, "missing uid")
		return
	}

	status, err := h.registrations.GetStatus(c.Request.Context(), id, uid)
	if err != nil {
		respondError(c, err)
		return
	}

	// No registration serializes as null, not as an empty string
	if status == "" {
		respondOK(c, gin.H{"status": nil})
		return
	}
	respondOK(c, gin.H{"status": status})
}
