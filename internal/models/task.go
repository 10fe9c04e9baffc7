package models

import (
	"time"

	"github.com/google/uuid"
)

// Common task status values. Status is an open set; these are only the ones
// the client offers by default.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

type Task struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	DueDate     Date      `db:"due_date" json:"due_date"`
	CreatedBy   uuid.UUID `db:"created_by" json:"created_by"`
	AssignedTo  uuid.UUID `db:"assigned_to" json:"assigned_to"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Resolved from the users table for display.
	Creator  *User `db:"-" json:"creator,omitempty"`
	Assignee *User `db:"-" json:"assignee,omitempty"`
}

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
