package models

import (
	"time"

	"github.com/google/uuid"
)

// Version kinds. Both histories live in event_versions and are numbered independently.
const (
	VersionKindManual = "manual"
	VersionKindAI     = "ai"
)

type EventVersion struct {
	ID          uuid.UUID      `json:"id"`
	EventID     uuid.UUID      `json:"event_id"`
	Kind        string         `json:"kind"`
	Version     int            `json:"version"`
	Payload     map[string]any `json:"payload"`
	SubmittedBy *uuid.UUID     `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"` // nil for unsubmitted drafts
	CreatedAt   time.Time      `json:"created_at"`
}

// OccurredAt is the moment the version should be placed at on a timeline.
func (v *EventVersion) OccurredAt() time.Time {
	if v.SubmittedAt != nil {
		return *v.SubmittedAt
	}
	return v.CreatedAt
}
