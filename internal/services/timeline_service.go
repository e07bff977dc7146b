package services

import (
	"context"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/diff"
	"github.com/eventdesk/backend/internal/fields"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimelineService renders the version history of an event and records AI-generated
// public copy as its own version stream.
type TimelineService struct {
	stores   Stores
	registry *fields.Registry
	effects  *effects
	now      func() time.Time
	log      *zap.Logger
}

func NewTimelineService(stores Stores, log *zap.Logger) *TimelineService {
	return &TimelineService{
		stores:   stores,
		registry: fields.Default(),
		effects:  newEffects(stores, nil, nil, log),
		now:      time.Now,
		log:      log,
	}
}

func (s *TimelineService) GetTimeline(ctx context.Context, eventID uuid.UUID, filter diff.Filter) ([]diff.Entry, error) {
	if _, err := s.stores.Events.GetByID(ctx, eventID); err != nil {
		return nil, storeErr("loading event", err)
	}

	manual, err := s.stores.Versions.ListByEvent(ctx, eventID, models.VersionKindManual)
	if err != nil {
		return nil, storeErr("loading versions", err)
	}
	ai, err := s.stores.Versions.ListByEvent(ctx, eventID, models.VersionKindAI)
	if err != nil {
		return nil, storeErr("loading ai versions", err)
	}

	names := s.actorNames(ctx, append(append([]models.EventVersion{}, manual...), ai...))

	return diff.BuildTimeline(filter,
		diff.Stream{Source: diff.SourceManual, Cumulative: true, Revisions: revisions(manual, names)},
		diff.Stream{Source: diff.SourceAI, Revisions: revisions(ai, names)},
	), nil
}

// actorNames resolves version authors to display names. Lookup failures leave ids blank.
func (s *TimelineService) actorNames(ctx context.Context, versions []models.EventVersion) map[uuid.UUID]string {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, v := range versions {
		if v.SubmittedBy != nil && !seen[*v.SubmittedBy] {
			seen[*v.SubmittedBy] = true
			ids = append(ids, *v.SubmittedBy)
		}
	}

	names := map[uuid.UUID]string{}
	users, err := s.stores.Users.GetByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("resolving timeline actors failed", zap.Error(err))
		return names
	}
	for _, u := range users {
		if u.Name != "" {
			names[u.ID] = u.Name
		} else {
			names[u.ID] = u.Email
		}
	}
	return names
}

func revisions(versions []models.EventVersion, names map[uuid.UUID]string) []diff.Revision {
	out := make([]diff.Revision, 0, len(versions))
	for i := range versions {
		v := &versions[i]
		actor := ""
		if v.SubmittedBy != nil {
			actor = names[*v.SubmittedBy]
		}
		out = append(out, diff.Revision{
			Version:    v.Version,
			OccurredAt: v.OccurredAt(),
			Actor:      actor,
			Payload:    v.Payload,
		})
	}
	return out
}

// RecordAIMetadata appends a snapshot of generated public fields to the AI stream.
func (s *TimelineService) RecordAIMetadata(ctx context.Context, eventID uuid.UUID, actor Actor, payload map[string]any) (*models.EventVersion, error) {
	ev, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr("loading event", err)
	}
	if err := authorize(rbac.OpRecordAIMetadata, actor, ev); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, &ValidationError{Field: "fields", Message: "is required"}
	}
	if unknown := s.registry.UnknownPublic(payload); len(unknown) > 0 {
		return nil, &ValidationError{Field: "fields", Message: "unknown keys: " + strings.Join(unknown, ", ")}
	}

	now := s.now().UTC()
	v := &models.EventVersion{
		EventID:     ev.ID,
		Kind:        models.VersionKindAI,
		Payload:     payload,
		SubmittedBy: &actor.ID,
		SubmittedAt: &now,
	}
	if err := s.stores.Versions.Append(ctx, v); err != nil {
		return nil, storeErr("saving ai metadata", err)
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	s.registry.Sort(keys)

	s.effects.audit(ctx, actor, models.AuditEventAIMetadata, ev.ID, map[string]any{
		"version": v.Version,
		"fields":  s.registry.Labels(keys),
	})
	return v, nil
}
