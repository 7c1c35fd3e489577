package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// UserRepository interface defines user account database operations.
// Reads on a missing id return a nil user, not an error.
type UserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]models.User, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, username, password_hash, role, is_active, created_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAll retrieves all users, most recently created first
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created_at DESC, id DESC", userColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = ?", userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by its unique username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = ?", userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// Create creates a new user and its audit entry in one transaction
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	result, err := tx.Exec(`
		INSERT INTO users (username, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.Username, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	user.ID = int(id)

	details := fmt.Sprintf("Created user %s", user.Username)
	if err := insertAuditLog(tx, "users", user.ID, models.ActionCreate, userctx.GetUsername(ctx), details, time.Now()); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user create: %w", err)
	}
	return nil
}

// Update writes the full user row. Returns false when the id does not exist.
func (r *userRepository) Update(ctx context.Context, user *models.User) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE users
		SET username = ?, password_hash = ?, role = ?, is_active = ?
		WHERE id = ?
	`, user.Username, user.PasswordHash, user.Role, user.IsActive, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	details := fmt.Sprintf("Updated user %s", user.Username)
	if err := insertAuditLog(tx, "users", user.ID, models.ActionUpdate, userctx.GetUsername(ctx), details, time.Now()); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit user update: %w", err)
	}
	return true, nil
}

// Delete removes a user by ID. Returns false when the id does not exist.
func (r *userRepository) Delete(ctx context.Context, id int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var username string
	err = tx.QueryRow("SELECT username FROM users WHERE id = ?", id).Scan(&username)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user for delete: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	details := fmt.Sprintf("Deleted user %s", username)
	if err := insertAuditLog(tx, "users", id, models.ActionDelete, userctx.GetUsername(ctx), details, time.Now()); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit user delete: %w", err)
	}
	return true, nil
}

// Count returns the total number of users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Recent retrieves the most recently created users
func (r *userRepository) Recent(ctx context.Context, limit int) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created_at DESC, id DESC LIMIT ?", userColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
