package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Spaces    string    `json:"spaces,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
