package services

import (
	"context"
	"errors"
	"time"

	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// SystemActor is used for writes made by background jobs.
var SystemActor = Actor{}

func (a Actor) IsSystem() bool { return a.ID == uuid.Nil }

func (a Actor) relations(e *models.Event) []rbac.Relation {
	if e == nil || a.IsSystem() {
		return nil
	}
	var rels []rbac.Relation
	if e.IsCreator(a.ID) {
		rels = append(rels, rbac.RelCreator)
	}
	if e.IsAssignee(a.ID) {
		rels = append(rels, rbac.RelAssignee)
	}
	return rels
}

func authorize(op string, a Actor, e *models.Event) error {
	if !rbac.Allowed(op, a.Role, a.relations(e)...) {
		return &PermissionError{Op: op, Message: "role " + a.Role + " does not hold the required relation to this event"}
	}
	return nil
}

// effects performs the advisory steps that follow a committed change: audit entries,
// notifications and live updates. Failures are logged and counted, never returned.
type effects struct {
	auditLog  AuditStore
	users     UserStore
	notifier  Notifier
	publisher events.Publisher
	log       *zap.Logger
}

func newEffects(stores Stores, notifier Notifier, publisher events.Publisher, log *zap.Logger) *effects {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &effects{auditLog: stores.Audit, users: stores.Users, notifier: notifier, publisher: publisher, log: log}
}

func (f *effects) audit(ctx context.Context, actor Actor, action string, eventID uuid.UUID, meta map[string]any) {
	entry := models.AuditLog{
		ActorType:  models.ActorTypeUser,
		Action:     action,
		EntityType: models.AuditEntityEvent,
		EntityID:   &eventID,
		Meta:       meta,
	}
	if actor.IsSystem() {
		entry.ActorType = models.ActorTypeSystem
	} else {
		id := actor.ID
		entry.ActorUserID = &id
	}

	if err := f.auditLog.Log(ctx, entry); err != nil {
		metrics.BestEffortFailures.WithLabelValues(metrics.KindAudit).Inc()
		f.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("event_id", eventID.String()),
			zap.Error(err),
		)
	}
}

// notifyUser looks up the recipient and hands the notification to the mailer.
// It reports whether the mailer accepted it.
func (f *effects) notifyUser(ctx context.Context, userID uuid.UUID, n Notification) bool {
	if f.notifier == nil {
		return false
	}
	u, err := f.users.GetByID(ctx, userID)
	if err != nil {
		metrics.BestEffortFailures.WithLabelValues(metrics.KindNotify).Inc()
		f.log.Warn("notification recipient lookup failed",
			zap.String("kind", n.Kind),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return false
	}
	n.RecipientEmail = u.Email
	n.RecipientName = u.Name
	return f.send(ctx, n)
}

func (f *effects) send(ctx context.Context, n Notification) bool {
	if f.notifier == nil {
		return false
	}
	if err := f.notifier.Notify(ctx, n); err != nil {
		metrics.BestEffortFailures.WithLabelValues(metrics.KindNotify).Inc()
		f.log.Warn("notification failed",
			zap.String("kind", n.Kind),
			zap.String("event_id", n.EventID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (f *effects) publish(ctx context.Context, typ string, e *models.Event, extra map[string]any) {
	payload := map[string]any{
		"event_id":   e.ID.String(),
		"title":      e.Title,
		"status":     e.Status,
		"created_by": e.CreatedBy.String(),
	}
	if e.AssigneeID != nil {
		payload["assignee_id"] = e.AssigneeID.String()
	}
	for k, v := range extra {
		payload[k] = v
	}

	if err := f.publisher.Publish(ctx, events.ChannelEvents, events.Event{Type: typ, Payload: payload}); err != nil {
		metrics.BestEffortFailures.WithLabelValues(metrics.KindPublish).Inc()
		f.log.Warn("publish failed", zap.String("type", typ), zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

func newNotification(kind string, e *models.Event, venueName string) Notification {
	start := e.StartAt
	return Notification{
		Kind:       kind,
		EventID:    e.ID.String(),
		EventTitle: e.Title,
		VenueName:  venueName,
		StartAt:    &start,
		Fields:     map[string]any{},
	}
}

// countRollback records the outcome of a failed transactional sequence.
func countRollback(op string, err error) {
	var rb *repositories.RollbackError
	if errors.As(err, &rb) {
		metrics.Rollbacks.WithLabelValues(op, "rollback_failed").Inc()
		return
	}
	metrics.Rollbacks.WithLabelValues(op, "rolled_back").Inc()
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
