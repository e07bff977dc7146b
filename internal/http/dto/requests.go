package dto

import "github.com/google/uuid"

// Event create and update bodies bind straight to services.EventInput, debriefs to
// services.DebriefInput.

type IssueTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SubmitEventRequest struct {
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved needs_revisions rejected"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

type AssigneeRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" validate:"required"`
}

type AIMetadataRequest struct {
	Fields map[string]any `json:"fields" validate:"required"`
}
