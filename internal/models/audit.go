package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions written by the event lifecycle.
const (
	AuditEventCreated         = "event.created"
	AuditEventUpdated         = "event.updated"
	AuditEventSubmitted       = "event.submitted"
	AuditEventAssigneeUpdated = "event.assignee_updated"
	AuditEventDebriefUpdated  = "event.debrief_updated"
	AuditEventAIMetadata      = "event.ai_metadata_generated"
	AuditEventReminderSent    = "event.review_reminder_sent"
)

const (
	AuditEntityEvent = "event"

	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// DecisionAuditAction returns the namespaced action for a reviewer decision, e.g. event.approved.
func DecisionAuditAction(decision string) string {
	return "event." + decision
}

type AuditLog struct {
	ID          int64          `json:"id"`
	ActorUserID *uuid.UUID     `json:"actor_user_id,omitempty"`
	ActorType   string         `json:"actor_type"` // user/system
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    *uuid.UUID     `json:"entity_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
