package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/services"
)

// SessionUserKey is the gin context key holding the verified session user
const SessionUserKey = "session_user"

// RequireSession validates the bearer subject against the identity store.
// Nothing from client storage is trusted: the subject must resolve to an
// existing user server-side before the handler runs.
func RequireSession(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid Authorization header format. Expected: 'Bearer {token}'"})
			c.Abort()
			return
		}

		user, err := users.VerifySession(c.Request.Context(), parts[1])
		if err != nil {
			log.Warn().Err(err).Msg("Session verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid session"})
			c.Abort()
			return
		}

		c.Set(SessionUserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects sessions whose user is not an admin. Must run after
// RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := SessionUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionUser returns the verified user attached by RequireSession, or nil
func SessionUser(c *gin.Context) *models.User {
	value, ok := c.Get(SessionUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
