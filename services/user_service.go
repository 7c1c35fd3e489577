package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
)

// UserService interface defines user management business logic
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
	Create(ctx context.Context, form *models.UserForm) (*models.User, error)
	Update(ctx context.Context, id int, form *models.UserUpdateForm) (*models.User, error)
	Delete(ctx context.Context, id int) error
	Activate(ctx context.Context, id int) (*models.User, error)
	Deactivate(ctx context.Context, id int) (*models.User, error)
}

// userService implements UserService interface
type userService struct {
	userRepo repositories.UserRepository
	hasher   auth.PasswordHasher
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, hasher auth.PasswordHasher) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// List retrieves all users
func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// Get retrieves a user by ID
func (s *userService) Get(ctx context.Context, id int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Create creates a new user with validation and a hashed password
func (s *userService) Create(ctx context.Context, form *models.UserForm) (*models.User, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	username := strings.TrimSpace(form.Username)

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         form.Role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Update applies a partial update to an existing user
func (s *userService) Update(ctx context.Context, id int, form *models.UserUpdateForm) (*models.User, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if form.Username != nil && *form.Username != user.Username {
		username := strings.TrimSpace(*form.Username)
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrUsernameTaken
		}
		user.Username = username
	}

	if form.Password != nil {
		hash, err := s.hasher.Hash(*form.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if form.Role != nil {
		user.Role = *form.Role
	}

	if form.IsActive != nil {
		user.IsActive = *form.IsActive
	}

	found, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return user, nil
}

// Delete permanently removes a user
func (s *userService) Delete(ctx context.Context, id int) error {
	found, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Activate marks a user account active
func (s *userService) Activate(ctx context.Context, id int) (*models.User, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate marks a user account inactive, blocking future logins
func (s *userService) Deactivate(ctx context.Context, id int) (*models.User, error) {
	return s.setActive(ctx, id, false)
}

func (s *userService) setActive(ctx context.Context, id int, active bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.IsActive = active
	found, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return user, nil
}
