package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
)

// AuthService handles login, logout, and session resolution
type AuthService struct {
	userRepo repositories.UserRepository
	sessions *auth.SessionStore
	hasher   auth.PasswordHasher
	logger   *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, sessions *auth.SessionStore, hasher auth.PasswordHasher, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}
}

// Login verifies credentials and opens a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn("login failed", "username", username, "reason", "invalid credentials")
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login failed", "username", username, "reason", "account inactive")
		return nil, "", ErrAccountInactive
	}

	token := s.sessions.Create(user.ID, user.Username, user.Role)
	s.logger.Info("user logged in", "username", username)

	return user, token, nil
}

// Logout removes the session for token. Unknown tokens are a no-op.
func (s *AuthService) Logout(token string) {
	s.sessions.Delete(token)
}

// CurrentUser resolves a session token back to its user. Returns nil for
// missing, expired, or orphaned sessions.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	session, ok := s.sessions.Get(token)
	if !ok {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return user, nil
}

// SeedAdmin creates the default admin account when the users table is
// empty, so a fresh deployment is reachable.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.logger.Info("default admin user created", "username", username)
	return nil
}
