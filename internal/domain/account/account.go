package account

import (
	"strings"
	"time"
)

const (
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateParams carries everything but the generated id and timestamp.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

// UpdateParams merges into an existing account; nil fields are left untouched.
type UpdateParams struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *string
	Status       *string
}

// NormalizeEmail is the canonical form used for the uniqueness invariant
// and for login matching: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidRole(role string) bool {
	return role == RoleDoctor || role == RoleAdmin
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusSuspended
}
