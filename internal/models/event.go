package models

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies an event for browsing.
type EventCategory string

const (
	CategoryHackathon EventCategory = "hackathon"
	CategoryWorkshop  EventCategory = "workshop"
	CategoryModelUN   EventCategory = "model_un"
	CategoryGaming    EventCategory = "gaming"
	CategoryOther     EventCategory = "other"
)

// Event represents a community event (hackathon, workshop, Model UN, gaming night).
type Event struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      EventCategory `json:"category"`
	Location      string        `json:"location"`
	StartsAt      time.Time     `json:"starts_at"`
	EndsAt        *time.Time    `json:"ends_at,omitempty"`
	Capacity      int           `json:"capacity"` // 0 = unlimited
	CoverImageKey string        `json:"cover_image_key,omitempty"`
	CreatedBy     uuid.UUID     `json:"created_by"`
	GroupID       *uuid.UUID    `json:"group_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
