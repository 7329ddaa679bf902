package auth

import (
	"time"

	"school-health-service/internal/user"

	"github.com/uptrace/bun"
)

// Session is the database row behind the bun-backed SessionStore.
// user_id is the primary key: the schema itself holds the
// one-live-session-per-user invariant.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	UserID    int       `bun:"user_id,pk"`
	Token     string    `bun:"token,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest is the request body for logout
type LogoutRequest struct {
	UserID int `json:"userId" validate:"required"`
}

// RegisterRequest is the request body for staff registration
type RegisterRequest struct {
	Name        string          `json:"name" validate:"required"`
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8"`
	Role        user.Role       `json:"role" validate:"required,oneof=admin teacher health_teacher"`
	SchoolType  user.SchoolType `json:"schoolType" validate:"required,oneof=elementary middle high"`
	SchoolName  string          `json:"schoolName" validate:"required"`
	PhoneNumber string          `json:"phoneNumber" validate:"required"`
}

// AuthResponse is the response for successful authentication.
// User carries no password hash - the model never serializes it.
type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}
