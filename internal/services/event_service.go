package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/diff"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/fields"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/eventdesk/backend/internal/sla"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventService struct {
	stores   Stores
	registry *fields.Registry
	effects  *effects
	now      func() time.Time
	log      *zap.Logger
}

func NewEventService(stores Stores, notifier Notifier, publisher events.Publisher, log *zap.Logger) *EventService {
	return &EventService{
		stores:   stores,
		registry: fields.Default(),
		effects:  newEffects(stores, notifier, publisher, log),
		now:      time.Now,
		log:      log,
	}
}

// EventDetail is an event with its venue, current SLA bucket, decisions and debrief.
type EventDetail struct {
	models.EventWithVenue
	SLA       sla.Status        `json:"sla"`
	Approvals []models.Approval `json:"approvals"`
	Debrief   *models.Debrief   `json:"debrief,omitempty"`
}

func (s *EventService) load(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev, err := s.stores.Events.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("loading event", err)
	}
	return ev, nil
}

func (s *EventService) venueName(ctx context.Context, id uuid.UUID) string {
	v, err := s.stores.Venues.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return v.Name
}

// validateEvent checks input beyond struct tags: the time window, the public field
// keys and the venue.
func (s *EventService) validateEvent(ctx context.Context, in EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.StartAt.Before(*in.EndAt) {
		return &ValidationError{Field: "end_at", Message: "must be after start_at"}
	}
	if unknown := s.registry.UnknownPublic(in.PublicFields); len(unknown) > 0 {
		return &ValidationError{Field: "public_fields", Message: "unknown keys: " + strings.Join(unknown, ", ")}
	}
	if _, err := s.stores.Venues.GetByID(ctx, in.VenueID); err != nil {
		if IsNotFound(err) {
			return &ValidationError{Field: "venue_id", Message: "venue not found"}
		}
		return storeErr("loading venue", err)
	}
	return nil
}

func applyInput(ev *models.Event, in EventInput) {
	ev.Title = strings.TrimSpace(in.Title)
	ev.EventType = in.EventType
	ev.StartAt = in.StartAt.UTC()
	ev.EndAt = in.EndAt.UTC()
	ev.VenueID = in.VenueID
	ev.VenueSpace = strings.TrimSpace(in.VenueSpace)
	ev.Promotions = in.Promotions
	ev.Notes = in.Notes
	ev.Terms = in.Terms
	ev.PublicFields = in.PublicFields
}

// CreateDraft inserts a draft and its first version, which holds every field set at creation.
func (s *EventService) CreateDraft(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	if err := authorize(rbac.OpCreateDraft, actor, nil); err != nil {
		return nil, err
	}
	if err := s.validateEvent(ctx, in); err != nil {
		return nil, err
	}

	ev := &models.Event{Status: models.EventStatusDraft, CreatedBy: actor.ID}
	applyInput(ev, in)

	initial := diff.Snapshot{}
	for k, v := range ev.Snapshot() {
		if !diff.IsEmpty(v) {
			initial[k] = v
		}
	}

	version := &models.EventVersion{Kind: models.VersionKindManual, Payload: initial, SubmittedBy: &actor.ID}
	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Events.Create(ctx, ev); err != nil {
			return err
		}
		version.EventID = ev.ID
		return s.stores.Versions.Append(ctx, version)
	})
	if err != nil {
		return nil, storeErr("creating draft", err)
	}

	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	s.registry.Sort(keys)

	s.effects.audit(ctx, actor, models.AuditEventCreated, ev.ID, map[string]any{
		"changed_fields": s.registry.Labels(keys),
		"version":        version.Version,
	})
	s.log.Info("draft created", zap.String("event_id", ev.ID.String()), zap.String("actor_id", actor.ID.String()))
	return ev, nil
}

// UpdateDraft saves the form. A version is appended on every save; the audit entry
// is written only when a field actually changed.
func (s *EventService) UpdateDraft(ctx context.Context, eventID uuid.UUID, actor Actor, in EventInput) (*models.Event, error) {
	ev, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !models.IsEditableStatus(ev.Status) {
		return nil, &PreconditionError{Status: ev.Status, Message: "only drafts and events needing revisions can be edited"}
	}
	if err := authorize(rbac.OpUpdateDraft, actor, ev); err != nil {
		return nil, err
	}
	if err := s.validateEvent(ctx, in); err != nil {
		return nil, err
	}

	before := ev.Snapshot()
	applyInput(ev, in)
	after := ev.Snapshot()
	changed := diff.ChangedFields(before, after)

	// Removed public fields are recorded as nil so the cumulative history clears them.
	payload := diff.Snapshot(after)
	for k := range before {
		if _, ok := after[k]; !ok {
			payload[k] = nil
		}
	}

	version := &models.EventVersion{EventID: ev.ID, Kind: models.VersionKindManual, Payload: payload, SubmittedBy: &actor.ID}
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Events.Update(ctx, ev); err != nil {
			return err
		}
		return s.stores.Versions.Append(ctx, version)
	})
	if err != nil {
		return nil, storeErr("updating draft", err)
	}

	if len(changed) > 0 {
		s.effects.audit(ctx, actor, models.AuditEventUpdated, ev.ID, map[string]any{
			"changed_fields": s.registry.Labels(changed),
			"version":        version.Version,
		})
	}
	return ev, nil
}

// resolveReviewer keeps an assignee who can review, otherwise takes the explicit choice,
// otherwise the earliest reviewer account.
func (s *EventService) resolveReviewer(ctx context.Context, ev *models.Event, explicit *uuid.UUID) (*models.User, error) {
	if ev.AssigneeID != nil {
		u, err := s.stores.Users.GetByID(ctx, *ev.AssigneeID)
		switch {
		case err == nil && rbac.CanReview(u.Role):
			return u, nil
		case err != nil && !IsNotFound(err):
			return nil, storeErr("loading assignee", err)
		}
	}

	if explicit != nil {
		u, err := s.stores.Users.GetByID(ctx, *explicit)
		if err != nil {
			if IsNotFound(err) {
				return nil, &ValidationError{Field: "reviewer_id", Message: "reviewer not found"}
			}
			return nil, storeErr("loading reviewer", err)
		}
		if !rbac.CanReview(u.Role) {
			return nil, &ValidationError{Field: "reviewer_id", Message: "user cannot review events"}
		}
		return u, nil
	}

	u, err := s.stores.Users.EarliestByRole(ctx, rbac.RoleReviewer)
	if err != nil {
		if IsNotFound(err) {
			return nil, &PreconditionError{Message: "no reviewer available to assign"}
		}
		return nil, storeErr("finding reviewer", err)
	}
	return u, nil
}

func (s *EventService) Submit(ctx context.Context, eventID uuid.UUID, actor Actor, reviewerID *uuid.UUID) (*models.Event, error) {
	ev, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !models.IsEditableStatus(ev.Status) {
		return nil, &PreconditionError{Status: ev.Status, Message: "only drafts and events needing revisions can be submitted"}
	}
	if err := authorize(rbac.OpSubmit, actor, ev); err != nil {
		return nil, err
	}

	reviewer, err := s.resolveReviewer(ctx, ev, reviewerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := ev.Status
	version := &models.EventVersion{
		EventID:     ev.ID,
		Kind:        models.VersionKindManual,
		Payload:     map[string]any{"status": models.EventStatusSubmitted, "submitted_at": stamp(now)},
		SubmittedBy: &actor.ID,
		SubmittedAt: &now,
	}
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if !ev.IsAssignee(reviewer.ID) {
			if err := s.stores.Events.AssignReviewer(ctx, ev.ID, reviewer.ID); err != nil {
				return err
			}
		}
		if err := s.stores.Events.TransitionStatus(ctx, ev.ID, from, models.EventStatusSubmitted); err != nil {
			return err
		}
		return s.stores.Versions.Append(ctx, version)
	})
	if err != nil {
		countRollback("submit", err)
		return nil, storeErr("submitting event", err)
	}

	ev.Status = models.EventStatusSubmitted
	ev.AssigneeID = &reviewer.ID
	metrics.Transitions.WithLabelValues(from, ev.Status).Inc()

	s.effects.audit(ctx, actor, models.AuditEventSubmitted, ev.ID, map[string]any{
		"from_status": from,
		"reviewer_id": reviewer.ID.String(),
		"version":     version.Version,
	})

	n := newNotification(NotifySubmitted, ev, s.venueName(ctx, ev.VenueID))
	n.RecipientEmail = reviewer.Email
	n.RecipientName = reviewer.Name
	s.effects.send(ctx, n)

	s.effects.publish(ctx, events.EventStatusChanged, ev, map[string]any{"old_status": from, "new_status": ev.Status})
	return ev, nil
}

// RecordDecision applies a reviewer decision. The status change, the decision version
// and the approval row commit together or not at all; the audit entry and the
// creator notification follow the commit.
func (s *EventService) RecordDecision(ctx context.Context, eventID uuid.UUID, actor Actor, decision, feedback string) (*models.Event, error) {
	if !models.IsValidDecision(decision) {
		return nil, &ValidationError{Field: "decision", Message: "must be one of approved, needs_revisions, rejected"}
	}

	ev, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !models.IsDecidableStatus(ev.Status) || !models.IsValidTransition(ev.Status, decision) {
		return nil, &PreconditionError{Status: ev.Status, Message: "event is not awaiting a decision"}
	}
	if err := authorize(rbac.OpDecide, actor, ev); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := ev.Status
	version := &models.EventVersion{
		EventID: ev.ID,
		Kind:    models.VersionKindManual,
		Payload: map[string]any{
			"decision":   decision,
			"note":       feedback,
			"decided_at": stamp(now),
			"decided_by": actor.ID.String(),
		},
		SubmittedBy: &actor.ID,
		SubmittedAt: &now,
	}
	approval := &models.Approval{EventID: ev.ID, Decision: decision, ReviewerID: actor.ID, Feedback: feedback, DecidedAt: now}

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Events.TransitionStatus(ctx, ev.ID, from, decision); err != nil {
			return err
		}
		if err := s.stores.Versions.Append(ctx, version); err != nil {
			return err
		}
		return s.stores.Approvals.Create(ctx, approval)
	})
	if err != nil {
		countRollback("decision", err)
		s.log.Error("decision not recorded",
			zap.String("event_id", ev.ID.String()),
			zap.String("decision", decision),
			zap.Error(err),
		)
		return nil, storeErr("recording decision", err)
	}

	ev.Status = decision
	metrics.Transitions.WithLabelValues(from, decision).Inc()

	s.effects.audit(ctx, actor, models.DecisionAuditAction(decision), ev.ID, map[string]any{
		"from_status": from,
		"decision":    decision,
		"feedback":    feedback,
		"version":     version.Version,
	})

	n := newNotification(NotifyDecision, ev, s.venueName(ctx, ev.VenueID))
	n.Fields["decision"] = decision
	n.Fields["feedback"] = feedback
	s.effects.notifyUser(ctx, ev.CreatedBy, n)

	s.effects.publish(ctx, events.EventStatusChanged, ev, map[string]any{"old_status": from, "new_status": decision})
	return ev, nil
}

// SubmitDebrief stores the post-event debrief and marks the event completed.
func (s *EventService) SubmitDebrief(ctx context.Context, eventID uuid.UUID, actor Actor, in DebriefInput) (*models.Event, *models.Debrief, error) {
	ev, err := s.load(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Status != models.EventStatusApproved && ev.Status != models.EventStatusCompleted {
		return nil, nil, &PreconditionError{Status: ev.Status, Message: "debriefs are recorded for approved events"}
	}
	if err := authorize(rbac.OpDebrief, actor, ev); err != nil {
		return nil, nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, nil, err
	}

	prev, err := s.stores.Debriefs.GetByEventID(ctx, ev.ID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, nil, storeErr("loading debrief", err)
		}
		prev = nil
	}

	d := &models.Debrief{
		EventID:         ev.ID,
		Attendance:      in.Attendance,
		BaselineTakings: in.BaselineTakings,
		Takings:         in.Takings,
		Highlights:      strings.TrimSpace(in.Highlights),
		Issues:          strings.TrimSpace(in.Issues),
		FollowUps:       strings.TrimSpace(in.FollowUps),
		SubmittedBy:     actor.ID,
	}
	if err := s.stores.Debriefs.Upsert(ctx, d); err != nil {
		return nil, nil, storeErr("saving debrief", err)
	}

	changed := changedDebriefFields(prev, d)

	from := ev.Status
	if ev.Status != models.EventStatusCompleted {
		if err := s.complete(ctx, ev); err != nil {
			return nil, nil, err
		}
		ev.Status = models.EventStatusCompleted
		metrics.Transitions.WithLabelValues(from, ev.Status).Inc()
	}

	meta := map[string]any{"changed_fields": changed}
	if amount, percent, ok := d.SalesUplift(); ok {
		meta["uplift_amount"] = amount
		meta["uplift_percent"] = percent
	}
	s.effects.audit(ctx, actor, models.AuditEventDebriefUpdated, ev.ID, meta)

	s.sendDigest(ctx, ev, d, changed, meta)

	s.effects.publish(ctx, events.EventDebriefUpdated, ev, map[string]any{"changed_fields": changed})
	if from != ev.Status {
		s.effects.publish(ctx, events.EventStatusChanged, ev, map[string]any{"old_status": from, "new_status": ev.Status})
	}
	return ev, d, nil
}

// complete moves an approved event to completed, through the elevated writer when one
// is configured and through the caller's own path otherwise or if that fails.
func (s *EventService) complete(ctx context.Context, ev *models.Event) error {
	if s.stores.Elevated != nil {
		err := s.stores.Elevated.TransitionStatus(ctx, ev.ID, ev.Status, models.EventStatusCompleted)
		if err == nil {
			return nil
		}
		s.log.Warn("elevated status update failed, using caller path",
			zap.String("event_id", ev.ID.String()),
			zap.Error(err),
		)
	}
	if err := s.stores.Events.TransitionStatus(ctx, ev.ID, ev.Status, models.EventStatusCompleted); err != nil {
		return storeErr("completing event", err)
	}
	return nil
}

func changedDebriefFields(prev, next *models.Debrief) []string {
	before, after := prev.Values(), next.Values()
	changed := []string{}
	for _, f := range models.TrackedDebriefFields {
		if !diff.Equal(before[f.Key], after[f.Key]) {
			changed = append(changed, f.Label)
		}
	}
	return changed
}

// sendDigest mails the debrief summary to the creator and every planner, once each.
func (s *EventService) sendDigest(ctx context.Context, ev *models.Event, d *models.Debrief, changed []string, meta map[string]any) {
	recipients := []uuid.UUID{ev.CreatedBy}
	planners, err := s.stores.Users.ListByRole(ctx, rbac.RoleCentralPlanner)
	if err != nil {
		s.log.Warn("listing planners for digest failed", zap.String("event_id", ev.ID.String()), zap.Error(err))
	}
	for _, p := range planners {
		recipients = append(recipients, p.ID)
	}

	venue := s.venueName(ctx, ev.VenueID)
	seen := map[uuid.UUID]bool{}
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true

		n := newNotification(NotifyDebriefDigest, ev, venue)
		for k, v := range d.Values() {
			n.Fields[k] = v
		}
		n.Fields["changed_fields"] = changed
		if v, ok := meta["uplift_percent"]; ok {
			n.Fields["uplift_amount"] = meta["uplift_amount"]
			n.Fields["uplift_percent"] = v
		}
		s.effects.notifyUser(ctx, id, n)
	}
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*EventDetail, error) {
	ev, err := s.stores.Events.GetWithVenue(ctx, id)
	if err != nil {
		return nil, storeErr("loading event", err)
	}

	approvals, err := s.stores.Approvals.ListByEvent(ctx, id)
	if err != nil {
		return nil, storeErr("loading approvals", err)
	}
	if approvals == nil {
		approvals = []models.Approval{}
	}

	d, err := s.stores.Debriefs.GetByEventID(ctx, id)
	if err != nil && !IsNotFound(err) {
		return nil, storeErr("loading debrief", err)
	}

	start := ev.StartAt
	return &EventDetail{
		EventWithVenue: *ev,
		SLA:            sla.Evaluate(&start, s.now()),
		Approvals:      approvals,
		Debrief:        d,
	}, nil
}

func (s *EventService) ListEvents(ctx context.Context, f repositories.EventFilter) ([]models.EventWithVenue, error) {
	if f.Status != nil && !models.IsValidStatus(*f.Status) {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}
	list, err := s.stores.Events.List(ctx, f)
	if err != nil {
		return nil, storeErr("listing events", err)
	}
	if list == nil {
		list = []models.EventWithVenue{}
	}
	return list, nil
}

// History returns the audit entries of an event, oldest first.
func (s *EventService) History(ctx context.Context, id uuid.UUID) ([]models.AuditLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.stores.Audit.ListByEntity(ctx, models.AuditEntityEvent, id)
	if err != nil {
		return nil, storeErr("loading history", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return entries, nil
}

// IsCompensation reports whether err left a sequence partially applied.
func IsCompensation(err error) bool {
	var ce *CompensationError
	return errors.As(err, &ce)
}
