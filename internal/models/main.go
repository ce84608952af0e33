// Package models defines the core data structures for users, sessions and tasks.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAge is applied when a registration omits the age.
const DefaultAge = 18

// User represents an application user. Credentials, sessions and the avatar
// never leave the process in serialized form.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID `json:"id"`
	// Name is the display name, trimmed.
	Name string `json:"name"`
	// Email is the trimmed, lowercased login address.
	Email string `json:"email"`
	// Age is the user's age in years.
	Age int `json:"age"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// Avatar holds the PNG-encoded avatar, if any.
	Avatar []byte `json:"-"`
	// Tokens are the active sessions in issuance order. Populated only on demand.
	Tokens []Token `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Token is one authenticated session bound to a user.
type Token struct {
	Value     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Registration carries the fields accepted when creating a user.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Age is optional; DefaultAge is used when nil.
	Age *int `json:"age"`
}

// UserUpdate carries a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// NewTask carries the fields accepted when creating a task. The owner is
// never taken from the caller's payload.
type NewTask struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// TaskUpdate carries a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// SortDirection orders a task listing.
type SortDirection string

const (
	// SortAsc orders from smallest to largest.
	SortAsc SortDirection = "asc"
	// SortDesc orders from largest to smallest.
	SortDesc SortDirection = "desc"
)

// TaskSort is a single-field ordering specifier. Field holds the store column.
type TaskSort struct {
	Field     string
	Direction SortDirection
}

// TaskQuery composes the filter, pagination and ordering of a task listing.
// Nil members are unbounded.
type TaskQuery struct {
	Completed *bool
	Limit     *int
	Skip      *int
	Sort      *TaskSort
}

// NotificationKind selects the message sent to a user.
type NotificationKind string

const (
	// NotifyWelcome is sent after registration.
	NotifyWelcome NotificationKind = "welcome"
	// NotifyAccountDeleted is sent after account deletion.
	NotifyAccountDeleted NotificationKind = "account-deleted"
)
