package services

import (
	"context"
	"time"

	"github.com/eventdesk/backend/internal/conflict"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/eventdesk/backend/internal/sla"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService serves the planner read surfaces: the SLA-annotated review queue,
// venue conflicts and the reminder sweep.
type ReviewService struct {
	stores  Stores
	effects *effects
	now     func() time.Time
	log     *zap.Logger
}

func NewReviewService(stores Stores, notifier Notifier, log *zap.Logger) *ReviewService {
	return &ReviewService{
		stores:  stores,
		effects: newEffects(stores, notifier, nil, log),
		now:     time.Now,
		log:     log,
	}
}

type QueueItem struct {
	models.EventWithVenue
	SLA sla.Status `json:"sla"`
}

// ReviewQueue lists submitted events soonest first. A non-nil assigneeID narrows the
// queue to one reviewer.
func (s *ReviewService) ReviewQueue(ctx context.Context, assigneeID *uuid.UUID) ([]QueueItem, error) {
	list, err := s.stores.Events.ListByStatus(ctx, models.EventStatusSubmitted)
	if err != nil {
		return nil, storeErr("loading review queue", err)
	}

	now := s.now()
	items := []QueueItem{}
	for _, e := range list {
		if assigneeID != nil && !e.IsAssignee(*assigneeID) {
			continue
		}
		start := e.StartAt
		items = append(items, QueueItem{EventWithVenue: e, SLA: sla.Evaluate(&start, now)})
	}
	return items, nil
}

type ConflictView struct {
	conflict.Pair
	VenueName string `json:"venue_name"`
}

// ListConflicts reports overlapping bookings among upcoming events that were not rejected.
func (s *ReviewService) ListConflicts(ctx context.Context) ([]ConflictView, error) {
	now := s.now()
	upcoming, err := s.stores.Events.ListUpcoming(ctx, now, []string{models.EventStatusRejected})
	if err != nil {
		return nil, storeErr("loading upcoming events", err)
	}

	pairs := conflict.Detect(upcoming, now)
	if len(pairs) == 0 {
		return []ConflictView{}, nil
	}

	venues, err := s.stores.Venues.List(ctx)
	if err != nil {
		return nil, storeErr("loading venues", err)
	}
	names := make(map[uuid.UUID]string, len(venues))
	for _, v := range venues {
		names[v.ID] = v.Name
	}

	out := make([]ConflictView, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ConflictView{Pair: p, VenueName: names[p.VenueID]})
	}
	return out, nil
}

// SweepReminders notifies assignees of submitted events that are due soon or overdue;
// planners are copied on overdue ones. Event rows are only read. It returns the number of
// reminders the mailer accepted.
func (s *ReviewService) SweepReminders(ctx context.Context) (int, error) {
	queue, err := s.ReviewQueue(ctx, nil)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("reminders", "error").Inc()
		return 0, err
	}

	var (
		planners       []models.User
		plannersLoaded bool
	)
	sent := 0
	for _, item := range queue {
		if !item.SLA.NeedsAttention() {
			continue
		}

		n := newNotification(NotifyReminder, &item.Event, item.VenueName)
		n.Fields["bucket"] = string(item.SLA.Bucket)
		n.Fields["label"] = item.SLA.Label
		n.Fields["action"] = item.SLA.Action

		delivered := 0
		if item.AssigneeID != nil && s.effects.notifyUser(ctx, *item.AssigneeID, n) {
			delivered++
		}

		if item.SLA.Bucket == sla.BucketOverdue {
			if !plannersLoaded {
				plannersLoaded = true
				planners, err = s.stores.Users.ListByRole(ctx, rbac.RoleCentralPlanner)
				if err != nil {
					s.log.Warn("listing planners failed", zap.Error(err))
				}
			}
			for _, p := range planners {
				if item.IsAssignee(p.ID) {
					continue
				}
				pn := n
				pn.RecipientEmail = p.Email
				pn.RecipientName = p.Name
				if s.effects.send(ctx, pn) {
					delivered++
				}
			}
		}

		if delivered > 0 {
			sent += delivered
			metrics.RemindersSent.WithLabelValues(string(item.SLA.Bucket)).Add(float64(delivered))
			s.effects.audit(ctx, SystemActor, models.AuditEventReminderSent, item.ID, map[string]any{
				"bucket":     string(item.SLA.Bucket),
				"recipients": delivered,
			})
		}
	}

	metrics.SweepRuns.WithLabelValues("reminders", "ok").Inc()
	s.log.Info("reminder sweep finished", zap.Int("queue", len(queue)), zap.Int("sent", sent))
	return sent, nil
}
