package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInStatus is the attendance state of a registration.
type CheckInStatus string

const (
	CheckInPending CheckInStatus = "pending"
	CheckedIn      CheckInStatus = "checked_in"
)

// Registration is an attendee registration for an event. UserID is nil for
// guest registrations (email-only).
type Registration struct {
	ID            uuid.UUID     `json:"id"`
	EventID       uuid.UUID     `json:"event_id"`
	UserID        *uuid.UUID    `json:"user_id,omitempty"`
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	CheckInStatus CheckInStatus `json:"check_in_status"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
