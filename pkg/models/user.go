package models

import (
	"time"
)

// Role is the authorization role carried by a user and its tokens
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account
type User struct {
	ID                string     `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	Role              Role       `json:"role" db:"role"`
	ResetOTPHash      *string    `json:"-" db:"reset_otp_hash"`
	ResetOTPExpiresAt *time.Time `json:"-" db:"reset_otp_expires_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public view of a user returned next to tokens and rosters
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// Summary returns the public view of the user
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Actor is the authenticated identity performing a request
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Is reports whether the actor has the given role
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
