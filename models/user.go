package models

import (
	"time"
)

// User roles
const (
	RoleAdmin      = "Admin"
	RoleEngineer   = "Engineer"
	RoleSupervisor = "Supervisor"
	RoleOperator   = "Operator"
)

// ValidRoles lists every role a user may hold
var ValidRoles = []string{RoleAdmin, RoleEngineer, RoleSupervisor, RoleOperator}

// User represents an account in the QMS
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserForm represents form data for creating users
type UserForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate validates the user form data
func (f *UserForm) Validate() []string {
	var errors []string

	if f.Username == "" {
		errors = append(errors, "Username is required")
	}

	if len(f.Username) > 100 {
		errors = append(errors, "Username must be less than 100 characters")
	}

	if f.Password == "" {
		errors = append(errors, "Password is required")
	}

	if f.Password != "" && len(f.Password) < 6 {
		errors = append(errors, "Password must be at least 6 characters long")
	}

	if !IsValidRole(f.Role) {
		errors = append(errors, "Role must be one of: Admin, Engineer, Supervisor, Operator")
	}

	return errors
}

// UserUpdateForm represents partial form data for updating users.
// Nil fields are left unchanged.
type UserUpdateForm struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// Validate validates the user update form data
func (f *UserUpdateForm) Validate() []string {
	var errors []string

	if f.Username != nil && *f.Username == "" {
		errors = append(errors, "Username cannot be empty")
	}

	if f.Password != nil && len(*f.Password) < 6 {
		errors = append(errors, "Password must be at least 6 characters long")
	}

	if f.Role != nil && !IsValidRole(*f.Role) {
		errors = append(errors, "Role must be one of: Admin, Engineer, Supervisor, Operator")
	}

	return errors
}

// IsValidRole reports whether role is one of the fixed role enum values
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
