package handlers

import (
	"github.com/gin-gonic/gin"

	"example.com/community/services/events/internal/api/middleware"
	"example.com/community/services/events/internal/services"
)

// UserHandler handles identity HTTP requests
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest is the payload for user creation
type CreateUserRequest struct {
	UID       string `json:"uid"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), services.CreateUserInput{
		UID:       req.UID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Address:   req.Address,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// Get handles GET /users/:uid
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user})
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"users": users})
}

// Delete handles DELETE /users/:uid
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), c.Param("uid")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "User deleted successfully"})
}

// Session handles POST /session/verify, echoing the user resolved by the session
// middleware so clients can confirm who the server thinks they are.
func (h *UserHandler) Session(c *gin.Context) {
	user := middleware.SessionUser(c)
	if user == nil {
		respondBadRequest(c, "no session")
		return
	}
	respondOK(c, gin.H{"user": user})
}
