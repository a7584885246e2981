package domain

import "time"

// Project status lifecycle. A project starts in creating, moves to active
// once a sandbox is attached, error when provisioning fails, and stopped
// when its sandbox was torn down while the record remains.
const (
	StatusCreating = "creating"
	StatusActive   = "active"
	StatusStopped  = "stopped"
	StatusError    = "error"
)

// Project pairs a persisted record with at most one live sandbox.
// SandboxID is set only while status is active.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SandboxID   *string   `json:"sandbox_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
