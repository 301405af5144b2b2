package domain

import "time"

// User models an authenticated actor in the system.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// AdminRole is the coarse admin hierarchy level carried into admin tokens.
type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "SuperAdmin"
	AdminRoleAdmin      AdminRole = "Admin"
	AdminRoleModerator  AdminRole = "Moderator"
)

// Admin is the optional admin record of a user. Its presence, not its role,
// is what makes a user eligible for admin tokens.
type Admin struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        AdminRole `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}
