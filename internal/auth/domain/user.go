package domain

import "time"

// Role is the coarse authorization level carried in token claims.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the identity record. The password hash never leaves the auth
// service; handlers must only ever expose the Public projection.
type User struct {
	ID           int64
	Username     string
	Email        string // normalized lowercase
	PasswordHash string // bcrypt encoded
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Status   Status `json:"status"`
}

// Public strips the credential material off a User.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}
}
