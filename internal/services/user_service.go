package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/internal/cache"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/repositories"
)

const sessionCacheTTL = 5 * time.Minute

// Mailer delivers outbound email
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// UserService manages identity records and server-side session verification
type UserService struct {
	users  repositories.UserRepository
	cache  *cache.RedisCache
	mailer Mailer
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, redisCache *cache.RedisCache, mailer Mailer) *UserService {
	return &UserService{users: users, cache: redisCache, mailer: mailer}
}

// CreateUserInput carries the fields accepted on user creation
type CreateUserInput struct {
	UID       string
	FirstName string
	LastName  string
	Email     string
	Address   string
	Phone     string
	Role      string
}

// CreateUser upserts an identity record and sends a welcome email best
// effort. Role defaults to member.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.UID == "" || input.Email == "" {
		return nil, Invalidf("missing required fields: uid or email")
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleMember && role != models.RoleAdmin {
		return nil, Invalidf("invalid role")
	}

	user := &models.User{
		UID:       input.UID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Address:   input.Address,
		Phone:     input.Phone,
		Role:      role,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to save user")
	}

	if s.mailer != nil {
		subject := "Welcome to the Community Events Association!"
		body := fmt.Sprintf("Hello %s %s,\n\nThank you for registering with the Community Events Association.",
			user.FirstName, user.LastName)
		if err := s.mailer.Send(ctx, []string{user.Email}, subject, body); err != nil {
			log.Warn().Err(err).Str("uid", user.UID).Msg("Failed to send welcome email")
		}
	}

	if err := s.cache.Delete(ctx, cache.SessionUserKey(user.UID)); err != nil {
		log.Warn().Err(err).Str("uid", user.UID).Msg("Failed to invalidate session cache")
	}

	log.Info().Str("uid", user.UID).Str("role", user.Role).Msg("User saved")
	return user, nil
}

// GetUser returns a single identity record
func (s *UserService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, Invalidf("missing user UID")
	}
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, errors.Wrap(err, "failed to load user")
	}
	return user, nil
}

// ListUsers returns all identity records
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// DeleteUser removes an identity record and its cached session
func (s *UserService) DeleteUser(ctx context.Context, uid string) error {
	if uid == "" {
		return Invalidf("missing UID")
	}
	if err := s.users.Delete(ctx, uid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFoundf("user not found")
		}
		return errors.Wrap(err, "failed to delete user")
	}
	if err := s.cache.Delete(ctx, cache.SessionUserKey(uid)); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to invalidate session cache")
	}
	return nil
}

// VerifySession validates a session subject against the identity store. No
// client-side flag is trusted: the user must exist server-side. Results are
// cached briefly to keep the middleware off the database's hot path.
func (s *UserService) VerifySession(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, Invalidf("missing uid")
	}

	var cached models.User
	if err := s.cache.Get(ctx, cache.SessionUserKey(uid), &cached); err == nil {
		return &cached, nil
	}

	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, errors.Wrap(err, "failed to verify session")
	}

	if err := s.cache.Set(ctx, cache.SessionUserKey(uid), user, sessionCacheTTL); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to cache session user")
	}

	return user, nil
}
