package models

import (
	"time"

	"github.com/google/uuid"
)

// Event statuses
const (
	EventStatusDraft          = "draft"
	EventStatusSubmitted      = "submitted"
	EventStatusNeedsRevisions = "needs_revisions"
	EventStatusApproved       = "approved"
	EventStatusRejected       = "rejected"
	EventStatusCompleted      = "completed"
)

// Reviewer decisions. Each decision is also the status the event moves to.
const (
	DecisionApproved       = EventStatusApproved
	DecisionNeedsRevisions = EventStatusNeedsRevisions
	DecisionRejected       = EventStatusRejected
)

// Valid state transitions: from -> []to
var ValidEventTransitions = map[string][]string{
	EventStatusDraft:          {EventStatusSubmitted},
	EventStatusSubmitted:      {EventStatusNeedsRevisions, EventStatusApproved, EventStatusRejected},
	EventStatusNeedsRevisions: {EventStatusSubmitted, EventStatusNeedsRevisions, EventStatusApproved, EventStatusRejected},
	EventStatusApproved:       {EventStatusCompleted},
	EventStatusRejected:       {},
	EventStatusCompleted:      {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidEventTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	_, ok := ValidEventTransitions[status]
	return ok
}

func IsValidDecision(decision string) bool {
	switch decision {
	case DecisionApproved, DecisionNeedsRevisions, DecisionRejected:
		return true
	}
	return false
}

// IsEditableStatus reports whether drafts may be saved in this status.
func IsEditableStatus(status string) bool {
	return status == EventStatusDraft || status == EventStatusNeedsRevisions
}

// IsDecidableStatus reports whether a reviewer decision may be recorded in this status.
func IsDecidableStatus(status string) bool {
	return status == EventStatusSubmitted || status == EventStatusNeedsRevisions
}

// Event types offered by the proposal form.
var EventTypes = []string{
	"quiz", "live_music", "comedy", "sports_screening", "tasting", "private_hire", "community", "other",
}

type Event struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	EventType    string         `json:"event_type"`
	StartAt      time.Time      `json:"start_at"`
	EndAt        time.Time      `json:"end_at"`
	VenueID      uuid.UUID      `json:"venue_id"`
	VenueSpace   string         `json:"venue_space"` // comma-delimited
	Status       string         `json:"status"`
	CreatedBy    uuid.UUID      `json:"created_by"`
	AssigneeID   *uuid.UUID     `json:"assignee_id,omitempty"`
	Promotions   string         `json:"promotions,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Terms        string         `json:"terms,omitempty"`
	PublicFields map[string]any `json:"public_fields,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// EventWithVenue embeds Event and adds venue info to avoid N+1 queries.
type EventWithVenue struct {
	Event
	VenueName string `json:"venue_name"`
}

// Snapshot returns the editable fields keyed by their registry key.
// Public fields are flattened next to the core fields.
func (e *Event) Snapshot() map[string]any {
	s := map[string]any{
		"title":       e.Title,
		"event_type":  e.EventType,
		"start_at":    formatTime(e.StartAt),
		"end_at":      formatTime(e.EndAt),
		"venue_id":    uuidString(e.VenueID),
		"venue_space": e.VenueSpace,
		"promotions":  e.Promotions,
		"notes":       e.Notes,
		"terms":       e.Terms,
	}
	for k, v := range e.PublicFields {
		s[k] = v
	}
	return s
}

func (e *Event) IsCreator(userID uuid.UUID) bool {
	return e.CreatedBy == userID
}

func (e *Event) IsAssignee(userID uuid.UUID) bool {
	return e.AssigneeID != nil && *e.AssigneeID == userID
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
