package dto

import "github.com/eventdesk/backend/internal/models"

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type DebriefResponse struct {
	Event   *models.Event   `json:"event"`
	Debrief *models.Debrief `json:"debrief"`
}
