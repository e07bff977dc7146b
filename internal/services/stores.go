package services

import (
	"context"
	"time"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/google/uuid"
)

// The interfaces below are implemented by the pgx repositories.

type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetWithVenue(ctx context.Context, id uuid.UUID) (*models.EventWithVenue, error)
	List(ctx context.Context, f repositories.EventFilter) ([]models.EventWithVenue, error)
	ListByStatus(ctx context.Context, status string) ([]models.EventWithVenue, error)
	ListUpcoming(ctx context.Context, since time.Time, excluded []string) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	AssignReviewer(ctx context.Context, eventID, reviewerID uuid.UUID) error
	UpdateAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error
	StatusWriter
}

// StatusWriter performs a guarded status change.
type StatusWriter interface {
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error
}

type VersionStore interface {
	Append(ctx context.Context, v *models.EventVersion) error
	ListByEvent(ctx context.Context, eventID uuid.UUID, kind string) ([]models.EventVersion, error)
}

type ApprovalStore interface {
	Create(ctx context.Context, a *models.Approval) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Approval, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
}

type DebriefStore interface {
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*models.Debrief, error)
	Upsert(ctx context.Context, d *models.Debrief) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EarliestByRole(ctx context.Context, role string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type VenueStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	List(ctx context.Context) ([]models.Venue, error)
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores groups the repositories the lifecycle services share.
type Stores struct {
	Events    EventStore
	Versions  VersionStore
	Approvals ApprovalStore
	Audit     AuditStore
	Debriefs  DebriefStore
	Users     UserStore
	Venues    VenueStore
	Tx        TxRunner

	// Elevated is the service-role status writer tried first when completing an event.
	// Nil when no service DSN is configured.
	Elevated StatusWriter
}
