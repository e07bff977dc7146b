package services

import (
	"context"

	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService moves events between reviewers. Planner only.
type AssignmentService struct {
	stores  Stores
	effects *effects
	log     *zap.Logger
}

func NewAssignmentService(stores Stores, notifier Notifier, publisher events.Publisher, log *zap.Logger) *AssignmentService {
	return &AssignmentService{
		stores:  stores,
		effects: newEffects(stores, notifier, publisher, log),
		log:     log,
	}
}

func (s *AssignmentService) Reassign(ctx context.Context, eventID uuid.UUID, actor Actor, assigneeID uuid.UUID) (*models.Event, error) {
	ev, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr("loading event", err)
	}
	if err := authorize(rbac.OpReassign, actor, ev); err != nil {
		return nil, err
	}

	next, err := s.stores.Users.GetByID(ctx, assigneeID)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ValidationError{Field: "assignee_id", Message: "user not found"}
		}
		return nil, storeErr("loading assignee", err)
	}

	prev := ev.AssigneeID
	if err := s.stores.Events.UpdateAssignee(ctx, ev.ID, &next.ID); err != nil {
		return nil, storeErr("updating assignee", err)
	}
	ev.AssigneeID = &next.ID

	s.effects.audit(ctx, actor, models.AuditEventAssigneeUpdated, ev.ID, map[string]any{
		"previous_assignee_id": uuidPtrString(prev),
		"next_assignee_id":     next.ID.String(),
	})

	venue := ""
	if v, err := s.stores.Venues.GetByID(ctx, ev.VenueID); err == nil {
		venue = v.Name
	}

	n := newNotification(NotifyAssigned, ev, venue)
	n.RecipientEmail = next.Email
	n.RecipientName = next.Name
	s.effects.send(ctx, n)

	if prev != nil && *prev != next.ID {
		s.effects.notifyUser(ctx, *prev, newNotification(NotifyUnassigned, ev, venue))
	}

	s.effects.publish(ctx, events.EventAssigneeChanged, ev, map[string]any{
		"previous_assignee_id": uuidPtrString(prev),
	})
	s.log.Info("event reassigned",
		zap.String("event_id", ev.ID.String()),
		zap.String("assignee_id", next.ID.String()),
	)
	return ev, nil
}
