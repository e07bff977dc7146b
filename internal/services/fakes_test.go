package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/rbac"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memState is the whole in-memory database. WithinTx snapshots and restores it.
type memState struct {
	events    map[uuid.UUID]models.Event
	versions  []models.EventVersion
	approvals []models.Approval
	audit     []models.AuditLog
	debriefs  map[uuid.UUID]models.Debrief
	users     []models.User
	venues    []models.Venue
}

func (s *memState) clone() *memState {
	c := &memState{
		events:    make(map[uuid.UUID]models.Event, len(s.events)),
		versions:  append([]models.EventVersion(nil), s.versions...),
		approvals: append([]models.Approval(nil), s.approvals...),
		audit:     append([]models.AuditLog(nil), s.audit...),
		debriefs:  make(map[uuid.UUID]models.Debrief, len(s.debriefs)),
		users:     append([]models.User(nil), s.users...),
		venues:    append([]models.Venue(nil), s.venues...),
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.debriefs {
		c.debriefs[k] = v
	}
	return c
}

type memDB struct {
	st       *memState
	auditSeq int64
	now      func() time.Time

	failApprovalCreate error
	failVersionAppend  error
	failRollback       error
	failAudit          error
	failElevated       error
	elevatedCalls      int
	listByRoleCalls    int
}

func newMemDB(now func() time.Time) *memDB {
	return &memDB{
		st: &memState{
			events:   map[uuid.UUID]models.Event{},
			debriefs: map[uuid.UUID]models.Debrief{},
		},
		now: now,
	}
}

// events

type memEvents struct{ db *memDB }

func (m memEvents) Create(_ context.Context, e *models.Event) error {
	e.ID = uuid.New()
	e.CreatedAt = m.db.now()
	e.UpdatedAt = e.CreatedAt
	m.db.st.events[e.ID] = *e
	return nil
}

func (m memEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := m.db.st.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (m memEvents) withVenue(e models.Event) models.EventWithVenue {
	out := models.EventWithVenue{Event: e}
	for _, v := range m.db.st.venues {
		if v.ID == e.VenueID {
			out.VenueName = v.Name
		}
	}
	return out
}

func (m memEvents) GetWithVenue(ctx context.Context, id uuid.UUID) (*models.EventWithVenue, error) {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := m.withVenue(*e)
	return &out, nil
}

func (m memEvents) sorted(keep func(models.Event) bool) []models.Event {
	var out []models.Event
	for _, e := range m.db.st.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m memEvents) List(_ context.Context, f repositories.EventFilter) ([]models.EventWithVenue, error) {
	var out []models.EventWithVenue
	for _, e := range m.sorted(func(e models.Event) bool {
		return (f.Status == nil || e.Status == *f.Status) &&
			(f.VenueID == nil || e.VenueID == *f.VenueID) &&
			(f.CreatedBy == nil || e.CreatedBy == *f.CreatedBy) &&
			(f.AssigneeID == nil || e.IsAssignee(*f.AssigneeID))
	}) {
		out = append(out, m.withVenue(e))
	}
	return out, nil
}

func (m memEvents) ListByStatus(ctx context.Context, status string) ([]models.EventWithVenue, error) {
	return m.List(ctx, repositories.EventFilter{Status: &status})
}

func (m memEvents) ListUpcoming(_ context.Context, since time.Time, excluded []string) ([]models.Event, error) {
	return m.sorted(func(e models.Event) bool {
		for _, s := range excluded {
			if e.Status == s {
				return false
			}
		}
		return !e.StartAt.Before(since)
	}), nil
}

func (m memEvents) Update(_ context.Context, e *models.Event) error {
	cur, ok := m.db.st.events[e.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Status = cur.Status
	e.AssigneeID = cur.AssigneeID
	e.UpdatedAt = m.db.now()
	m.db.st.events[e.ID] = *e
	return nil
}

func (m memEvents) TransitionStatus(_ context.Context, id uuid.UUID, from, to string) error {
	e, ok := m.db.st.events[id]
	if !ok || e.Status != from {
		return repositories.ErrStatusConflict
	}
	e.Status = to
	m.db.st.events[id] = e
	return nil
}

func (m memEvents) AssignReviewer(_ context.Context, eventID, reviewerID uuid.UUID) error {
	var role string
	for _, u := range m.db.st.users {
		if u.ID == reviewerID {
			role = u.Role
		}
	}
	if !rbac.CanReview(role) {
		return fmt.Errorf("user %s cannot review events", reviewerID)
	}
	return m.UpdateAssignee(context.Background(), eventID, &reviewerID)
}

func (m memEvents) UpdateAssignee(_ context.Context, id uuid.UUID, assigneeID *uuid.UUID) error {
	e, ok := m.db.st.events[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if assigneeID != nil {
		a := *assigneeID
		e.AssigneeID = &a
	} else {
		e.AssigneeID = nil
	}
	m.db.st.events[id] = e
	return nil
}

// elevated is the service-role status writer.
type memElevated struct{ db *memDB }

func (m memElevated) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	m.db.elevatedCalls++
	if m.db.failElevated != nil {
		return m.db.failElevated
	}
	return memEvents(m).TransitionStatus(ctx, id, from, to)
}

// versions

type memVersions struct{ db *memDB }

func (m memVersions) Append(_ context.Context, v *models.EventVersion) error {
	if m.db.failVersionAppend != nil {
		return m.db.failVersionAppend
	}
	next := 1
	for _, x := range m.db.st.versions {
		if x.EventID == v.EventID && x.Kind == v.Kind && x.Version >= next {
			next = x.Version + 1
		}
	}
	v.ID = uuid.New()
	v.Version = next
	v.CreatedAt = m.db.now()
	m.db.st.versions = append(m.db.st.versions, *v)
	return nil
}

func (m memVersions) ListByEvent(_ context.Context, eventID uuid.UUID, kind string) ([]models.EventVersion, error) {
	var out []models.EventVersion
	for _, v := range m.db.st.versions {
		if v.EventID == eventID && v.Kind == kind {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// approvals

type memApprovals struct{ db *memDB }

func (m memApprovals) Create(_ context.Context, a *models.Approval) error {
	if m.db.failApprovalCreate != nil {
		return m.db.failApprovalCreate
	}
	a.ID = uuid.New()
	m.db.st.approvals = append(m.db.st.approvals, *a)
	return nil
}

func (m memApprovals) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.Approval, error) {
	var out []models.Approval
	for _, a := range m.db.st.approvals {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// audit

type memAudit struct{ db *memDB }

func (m memAudit) Log(_ context.Context, entry models.AuditLog) error {
	if m.db.failAudit != nil {
		return m.db.failAudit
	}
	m.db.auditSeq++
	entry.ID = m.db.auditSeq
	entry.CreatedAt = m.db.now()
	m.db.st.audit = append(m.db.st.audit, entry)
	return nil
}

func (m memAudit) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, a := range m.db.st.audit {
		if a.EntityType == entityType && a.EntityID != nil && *a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

// debriefs

type memDebriefs struct{ db *memDB }

func (m memDebriefs) GetByEventID(_ context.Context, eventID uuid.UUID) (*models.Debrief, error) {
	d, ok := m.db.st.debriefs[eventID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (m memDebriefs) Upsert(_ context.Context, d *models.Debrief) error {
	now := m.db.now()
	if cur, ok := m.db.st.debriefs[d.EventID]; ok {
		d.CreatedAt = cur.CreatedAt
	} else {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	m.db.st.debriefs[d.EventID] = *d
	return nil
}

// users and venues

type memUsers struct{ db *memDB }

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.db.st.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memUsers) EarliestByRole(ctx context.Context, role string) (*models.User, error) {
	list, _ := m.ListByRole(ctx, role)
	if len(list) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &list[0], nil
}

func (m memUsers) ListByRole(_ context.Context, role string) ([]models.User, error) {
	m.db.listByRoleCalls++
	var out []models.User
	for _, u := range m.db.st.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m memUsers) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := m.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

type memVenues struct{ db *memDB }

func (m memVenues) GetByID(_ context.Context, id uuid.UUID) (*models.Venue, error) {
	for _, v := range m.db.st.venues {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memVenues) List(_ context.Context) ([]models.Venue, error) {
	return m.db.st.venues, nil
}

// tx

type memTx struct{ db *memDB }

func (m memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := m.db.st.clone()
	if err := fn(ctx); err != nil {
		if m.db.failRollback != nil {
			return &repositories.RollbackError{Err: err, RollbackErr: m.db.failRollback}
		}
		m.db.st = snapshot
		return err
	}
	return nil
}

// collaborators

type recordingNotifier struct {
	sent []Notification
	fail error
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) to(email, kind string) int {
	c := 0
	for _, s := range n.sent {
		if s.RecipientEmail == email && s.Kind == kind {
			c++
		}
	}
	return c
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

// harness wires every service over one memDB with a fixed clock.

var (
	testNow  = time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC)
	errStore = errors.New("connection reset by peer")
)

type harness struct {
	db        *memDB
	notifier  *recordingNotifier
	publisher *recordingPublisher

	events     *EventService
	assignment *AssignmentService
	timeline   *TimelineService
	review     *ReviewService

	venue     models.Venue
	manager   Actor
	reviewer  Actor
	reviewer2 Actor
	planner   Actor
	emails    map[uuid.UUID]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := func() time.Time { return testNow }
	db := newMemDB(clock)
	h := &harness{
		db:        db,
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		venue:     models.Venue{ID: uuid.New(), Name: "The Crown", Spaces: "Main Bar, Garden"},
		emails:    map[uuid.UUID]string{},
	}
	db.st.venues = append(db.st.venues, h.venue)

	addUser := func(name, role string, created time.Time) Actor {
		u := models.User{ID: uuid.New(), Email: name + "@example.com", Name: name, Role: role, CreatedAt: created}
		db.st.users = append(db.st.users, u)
		h.emails[u.ID] = u.Email
		return Actor{ID: u.ID, Role: role}
	}
	h.manager = addUser("manager", rbac.RoleVenueManager, testNow.Add(-72*time.Hour))
	h.reviewer = addUser("reviewer", rbac.RoleReviewer, testNow.Add(-48*time.Hour))
	h.reviewer2 = addUser("reviewer2", rbac.RoleReviewer, testNow.Add(-24*time.Hour))
	h.planner = addUser("planner", rbac.RoleCentralPlanner, testNow.Add(-96*time.Hour))

	stores := Stores{
		Events:    memEvents{db},
		Versions:  memVersions{db},
		Approvals: memApprovals{db},
		Audit:     memAudit{db},
		Debriefs:  memDebriefs{db},
		Users:     memUsers{db},
		Venues:    memVenues{db},
		Tx:        memTx{db},
	}
	log := zap.NewNop()

	h.events = NewEventService(stores, h.notifier, h.publisher, log)
	h.events.now = clock
	h.assignment = NewAssignmentService(stores, h.notifier, h.publisher, log)
	h.timeline = NewTimelineService(stores, log)
	h.timeline.now = clock
	h.review = NewReviewService(stores, h.notifier, log)
	h.review.now = clock
	return h
}

func (h *harness) withElevated() {
	h.events.stores.Elevated = memElevated{h.db}
}

func (h *harness) input(title string, startHour, endHour int) EventInput {
	start := time.Date(2025, 5, 1, startHour, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, endHour, 0, 0, 0, time.UTC)
	return EventInput{
		Title:      title,
		EventType:  "quiz",
		StartAt:    &start,
		EndAt:      &end,
		VenueID:    h.venue.ID,
		VenueSpace: "Main Bar",
	}
}

func (h *harness) event(t *testing.T, id uuid.UUID) models.Event {
	t.Helper()
	e, ok := h.db.st.events[id]
	if !ok {
		t.Fatalf("event %s not stored", id)
	}
	return e
}

func (h *harness) versions(id uuid.UUID, kind string) []models.EventVersion {
	v, _ := memVersions{h.db}.ListByEvent(context.Background(), id, kind)
	return v
}

func (h *harness) auditActions(id uuid.UUID) []string {
	var out []string
	for _, a := range h.db.st.audit {
		if a.EntityID != nil && *a.EntityID == id {
			out = append(out, a.Action)
		}
	}
	return out
}

func (h *harness) lastAudit(t *testing.T, id uuid.UUID, action string) models.AuditLog {
	t.Helper()
	for i := len(h.db.st.audit) - 1; i >= 0; i-- {
		a := h.db.st.audit[i]
		if a.EntityID != nil && *a.EntityID == id && a.Action == action {
			return a
		}
	}
	t.Fatalf("no %s audit entry for %s", action, id)
	return models.AuditLog{}
}

// draft creates a Quiz Night draft as the venue manager.
func (h *harness) draft(t *testing.T) *models.Event {
	t.Helper()
	ev, err := h.events.CreateDraft(context.Background(), h.manager, h.input("Quiz Night", 18, 20))
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	return ev
}

func (h *harness) submitted(t *testing.T) *models.Event {
	t.Helper()
	ev := h.draft(t)
	ev, err := h.events.Submit(context.Background(), ev.ID, h.manager, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return ev
}

func (h *harness) approved(t *testing.T) *models.Event {
	t.Helper()
	ev := h.submitted(t)
	ev, err := h.events.RecordDecision(context.Background(), ev.ID, h.reviewer, models.DecisionApproved, "Looks great")
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	return ev
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
