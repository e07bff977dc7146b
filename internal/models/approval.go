package models

import (
	"time"

	"github.com/google/uuid"
)

type Approval struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	Decision   string    `json:"decision"` // approved / needs_revisions / rejected
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Feedback   string    `json:"feedback,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}
