package model

import (
	"strings"
	"time"
)

// Role is the single role tag of a user.
type Role string

const (
	RoleResident  Role = "resident"
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleCollector, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system.
type User struct {
	// ID unique identifier of the user.
	ID string `json:"id"`

	// Username is the unique login handle of the user.
	Username string `json:"username"`

	// Email is the unique, normalized user email.
	Email string `json:"email"`

	// PasswordHash contains the password hash. It never leaves the service.
	PasswordHash string `json:"-"`

	// Role is the user role. It is fixed at creation.
	Role Role `json:"role"`

	// Profile holds the optional personal details.
	Profile Profile `json:"profile"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time at which the user was last updated
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Profile are the optional personal details of a user.
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	// UserID is the id of the calling user.
	UserID string

	// Role is the role of the calling user.
	Role Role
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestEvent collects a collection-request change. Before is nil on creation.
type RequestEvent struct {
	// ID is the event id.
	ID string `json:"id"`

	// Before is the request state before the change.
	Before *CollectionRequest `json:"before"`

	// After is the request state after the change.
	After *CollectionRequest `json:"after"`
}

// RouteEvent collects a route change. Before is nil on creation.
type RouteEvent struct {
	// ID is the event id.
	ID string `json:"id"`

	// Before is the route state before the change.
	Before *Route `json:"before"`

	// After is the route state after the change.
	After *Route `json:"after"`
}
