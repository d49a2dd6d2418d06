// Package models defines the core data structures for users and tasks.
package models

import "time"

// User represents an account holder.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is unique across users and stored lower-cased.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the password. It is never serialized.
	PasswordHash []byte `json:"-"`
	// CreatedAt is set when the user registers.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is refreshed on every profile write.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `json:"id"`
	// Description is the trimmed, non-empty task text.
	Description string `json:"description"`
	// Completed reports whether the task is done.
	Completed bool `json:"completed"`
	// OwnerID references the owning user and never changes.
	OwnerID string `json:"owner"`
	// CreatedAt is set on insert.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is refreshed on every write.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTask carries the fields a client may set when creating a task.
type NewTask struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// TaskPatch holds the fields of a partial task update; nil means unchanged.
type TaskPatch struct {
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// UserPatch holds the fields of a partial profile update; nil means unchanged.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// SortField names a task attribute tasks can be ordered by.
type SortField string

const (
	// SortByDescription orders by task text.
	SortByDescription SortField = "description"
	// SortByCompleted orders by completion state, incomplete first when ascending.
	SortByCompleted SortField = "completed"
	// SortByCreatedAt orders by insertion time.
	SortByCreatedAt SortField = "createdAt"
	// SortByUpdatedAt orders by last modification time.
	SortByUpdatedAt SortField = "updatedAt"
)

// Valid reports whether f is one of the sortable fields.
func (f SortField) Valid() bool {
	switch f {
	case SortByDescription, SortByCompleted, SortByCreatedAt, SortByUpdatedAt:
		return true
	}
	return false
}

// TaskSort is a single sort key with its direction.
type TaskSort struct {
	Field SortField
	Desc  bool
}

// TaskQuery narrows a task listing. The owner is never part of it:
// stores always take the owner separately and apply it first.
type TaskQuery struct {
	// Completed, when set, keeps only tasks with that completion state.
	Completed *bool
	// Sort, when set, orders the result; otherwise store-native order applies.
	Sort *TaskSort
	// Limit caps the result size; 0 means unbounded.
	Limit int
	// Offset skips that many matching tasks.
	Offset int
}
