package services

import (
	"context"
	"errors"
	"testing"

	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/repositories"
	"github.com/google/uuid"
)

func TestQuizNightLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// create
	ev := h.draft(t)
	if ev.Status != models.EventStatusDraft {
		t.Fatalf("status = %s, want draft", ev.Status)
	}
	versions := h.versions(ev.ID, models.VersionKindManual)
	if len(versions) != 1 || versions[0].Version != 1 {
		t.Fatalf("expected version #1, got %+v", versions)
	}
	v1 := versions[0].Payload
	if v1["title"] != "Quiz Night" || v1["start_at"] != "2025-05-01T18:00:00Z" || v1["end_at"] != "2025-05-01T20:00:00Z" {
		t.Errorf("version #1 payload = %v", v1)
	}
	if _, ok := v1["notes"]; ok {
		t.Error("empty fields must not be stored in version #1")
	}
	created := h.lastAudit(t, ev.ID, models.AuditEventCreated)
	if labels, _ := created.Meta["changed_fields"].([]string); !contains(labels, "Title") || !contains(labels, "Venue space") {
		t.Errorf("created audit labels = %v", created.Meta["changed_fields"])
	}

	// submit
	ev, err := h.events.Submit(ctx, ev.ID, h.manager, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ev.Status != models.EventStatusSubmitted || !ev.IsAssignee(h.reviewer.ID) {
		t.Fatalf("after submit: status %s assignee %v", ev.Status, ev.AssigneeID)
	}
	versions = h.versions(ev.ID, models.VersionKindManual)
	if len(versions) != 2 || versions[1].Payload["status"] != "submitted" {
		t.Fatalf("expected version #2 status marker, got %+v", versions)
	}
	if versions[1].SubmittedAt == nil || !versions[1].SubmittedAt.Equal(testNow) {
		t.Errorf("submitted_at = %v", versions[1].SubmittedAt)
	}
	h.lastAudit(t, ev.ID, models.AuditEventSubmitted)
	if h.notifier.to("reviewer@example.com", NotifySubmitted) != 1 {
		t.Error("reviewer should be notified of the submission")
	}

	// decide
	ev, err = h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionApproved, "Looks great")
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if got := h.event(t, ev.ID).Status; got != models.EventStatusApproved {
		t.Fatalf("stored status = %s", got)
	}
	if len(h.db.st.approvals) != 1 || h.db.st.approvals[0].Decision != "approved" || h.db.st.approvals[0].Feedback != "Looks great" {
		t.Errorf("approvals = %+v", h.db.st.approvals)
	}
	versions = h.versions(ev.ID, models.VersionKindManual)
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	v3 := versions[2].Payload
	if v3["decision"] != "approved" || v3["note"] != "Looks great" || v3["decided_by"] != h.reviewer.ID.String() {
		t.Errorf("version #3 payload = %v", v3)
	}
	h.lastAudit(t, ev.ID, "event.approved")
	if h.notifier.to("manager@example.com", NotifyDecision) != 1 {
		t.Error("creator should be notified of the decision")
	}

	// conflicting second booking
	if _, err := h.events.CreateDraft(ctx, h.manager, h.input("Acoustic Set", 19, 21)); err != nil {
		t.Fatalf("CreateDraft second: %v", err)
	}
	pairs, err := h.review.ListConflicts(ctx)
	if err != nil {
		t.Fatalf("ListConflicts: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one conflict, got %d", len(pairs))
	}
	if pairs[0].VenueName != "The Crown" || pairs[0].Label != "Main Bar" {
		t.Errorf("conflict = %+v", pairs[0])
	}
}

func TestUpdateDraftVersionsEverySaveAuditsOnlyChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.draft(t)

	in := h.input("Quiz Night", 18, 20)
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.manager, in); err != nil {
		t.Fatalf("UpdateDraft unchanged: %v", err)
	}
	if n := len(h.versions(ev.ID, models.VersionKindManual)); n != 2 {
		t.Errorf("unchanged save should still version, got %d versions", n)
	}
	if contains(h.auditActions(ev.ID), models.AuditEventUpdated) {
		t.Error("unchanged save must not be audited")
	}

	in.Notes = "Bring pens"
	in.PublicFields = map[string]any{"ticket_price": 5}
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.manager, in); err != nil {
		t.Fatalf("UpdateDraft changed: %v", err)
	}
	entry := h.lastAudit(t, ev.ID, models.AuditEventUpdated)
	labels, _ := entry.Meta["changed_fields"].([]string)
	if len(labels) != 2 || labels[0] != "Notes" || labels[1] != "Ticket price" {
		t.Errorf("changed labels = %v", labels)
	}
	if entry.Meta["version"] != 3 {
		t.Errorf("audit version = %v", entry.Meta["version"])
	}

	// dropping a public field records it as cleared
	in.PublicFields = nil
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.manager, in); err != nil {
		t.Fatalf("UpdateDraft clear: %v", err)
	}
	latest := h.versions(ev.ID, models.VersionKindManual)[3]
	if v, ok := latest.Payload["ticket_price"]; !ok || v != nil {
		t.Errorf("cleared public field payload = %v, %v", v, ok)
	}
}

func TestUpdateDraftRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.draft(t)
	in := h.input("Quiz Night", 18, 20)

	var pe *PermissionError
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.reviewer, in); !errors.As(err, &pe) {
		t.Errorf("non-creator reviewer: err = %v, want PermissionError", err)
	}
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.planner, in); err != nil {
		t.Errorf("planner may edit any draft: %v", err)
	}

	if _, err := h.events.Submit(ctx, ev.ID, h.manager, nil); err != nil {
		t.Fatal(err)
	}
	var ce *PreconditionError
	if _, err := h.events.UpdateDraft(ctx, ev.ID, h.manager, in); !errors.As(err, &ce) {
		t.Errorf("submitted event: err = %v, want PreconditionError", err)
	}

	var se *StoreError
	if _, err := h.events.UpdateDraft(ctx, uuid.New(), h.manager, in); !errors.As(err, &se) || !IsNotFound(err) {
		t.Errorf("missing event: err = %v, want StoreError wrapping not found", err)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		mod   func(*EventInput)
		field string
	}{
		{"missing title", func(in *EventInput) { in.Title = "" }, "title"},
		{"blank title", func(in *EventInput) { in.Title = "   " }, "title"},
		{"missing start", func(in *EventInput) { in.StartAt = nil }, "start_at"},
		{"missing venue", func(in *EventInput) { in.VenueID = uuid.Nil }, "venue_id"},
		{"unknown venue", func(in *EventInput) { in.VenueID = uuid.New() }, "venue_id"},
		{"end before start", func(in *EventInput) { in.EndAt, in.StartAt = in.StartAt, in.EndAt }, "end_at"},
		{"zero length", func(in *EventInput) { in.EndAt = in.StartAt }, "end_at"},
		{"bad event type", func(in *EventInput) { in.EventType = "rave" }, "event_type"},
		{"unknown public key", func(in *EventInput) { in.PublicFields = map[string]any{"dj_rider": "x"} }, "public_fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := h.input("Quiz Night", 18, 20)
			tt.mod(&in)
			_, err := h.events.CreateDraft(ctx, h.manager, in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	if len(h.db.st.events) != 0 || len(h.db.st.versions) != 0 {
		t.Error("rejected drafts must not write anything")
	}

	var pe *PermissionError
	if _, err := h.events.CreateDraft(ctx, h.reviewer, h.input("Quiz Night", 18, 20)); !errors.As(err, &pe) {
		t.Errorf("reviewer create: err = %v, want PermissionError", err)
	}
}

func TestSubmitReviewerResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("earliest reviewer by default", func(t *testing.T) {
		h := newHarness(t)
		ev := h.submitted(t)
		if !ev.IsAssignee(h.reviewer.ID) {
			t.Errorf("assignee = %v, want earliest reviewer", ev.AssigneeID)
		}
	})

	t.Run("explicit reviewer", func(t *testing.T) {
		h := newHarness(t)
		ev := h.draft(t)
		id := h.reviewer2.ID
		ev, err := h.events.Submit(ctx, ev.ID, h.manager, &id)
		if err != nil {
			t.Fatal(err)
		}
		if !ev.IsAssignee(h.reviewer2.ID) {
			t.Errorf("assignee = %v, want reviewer2", ev.AssigneeID)
		}
	})

	t.Run("explicit non-reviewer rejected", func(t *testing.T) {
		h := newHarness(t)
		ev := h.draft(t)
		id := h.manager.ID
		_, err := h.events.Submit(ctx, ev.ID, h.manager, &id)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "reviewer_id" {
			t.Errorf("err = %v, want reviewer_id ValidationError", err)
		}
		if h.event(t, ev.ID).Status != models.EventStatusDraft {
			t.Error("status must not change")
		}
	})

	t.Run("current assignee who can review is kept", func(t *testing.T) {
		h := newHarness(t)
		ev := h.submitted(t)
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionNeedsRevisions, "Add a price"); err != nil {
			t.Fatal(err)
		}
		if _, err := h.assignment.Reassign(ctx, ev.ID, h.planner, h.reviewer2.ID); err != nil {
			t.Fatal(err)
		}
		other := h.reviewer.ID
		ev, err := h.events.Submit(ctx, ev.ID, h.manager, &other)
		if err != nil {
			t.Fatal(err)
		}
		if !ev.IsAssignee(h.reviewer2.ID) {
			t.Errorf("assignee = %v, want kept reviewer2", ev.AssigneeID)
		}
	})

	t.Run("no reviewer available", func(t *testing.T) {
		h := newHarness(t)
		var users []models.User
		for _, u := range h.db.st.users {
			if u.Role != "reviewer" {
				users = append(users, u)
			}
		}
		h.db.st.users = users
		ev := h.draft(t)
		_, err := h.events.Submit(ctx, ev.ID, h.manager, nil)
		var ce *PreconditionError
		if !errors.As(err, &ce) {
			t.Errorf("err = %v, want PreconditionError", err)
		}
	})
}

func TestSubmitRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.draft(t)

	var pe *PermissionError
	if _, err := h.events.Submit(ctx, ev.ID, h.reviewer, nil); !errors.As(err, &pe) {
		t.Errorf("non-creator: err = %v, want PermissionError", err)
	}

	if _, err := h.events.Submit(ctx, ev.ID, h.manager, nil); err != nil {
		t.Fatal(err)
	}
	var ce *PreconditionError
	if _, err := h.events.Submit(ctx, ev.ID, h.manager, nil); !errors.As(err, &ce) {
		t.Errorf("double submit: err = %v, want PreconditionError", err)
	}
}

func TestRecordDecisionRules(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid decision", func(t *testing.T) {
		h := newHarness(t)
		ev := h.submitted(t)
		var ve *ValidationError
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, "maybe", ""); !errors.As(err, &ve) {
			t.Errorf("err = %v, want ValidationError", err)
		}
	})

	t.Run("draft is not decidable", func(t *testing.T) {
		h := newHarness(t)
		ev := h.draft(t)
		var ce *PreconditionError
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.planner, models.DecisionApproved, ""); !errors.As(err, &ce) {
			t.Errorf("err = %v, want PreconditionError", err)
		}
	})

	t.Run("only assignee or planner", func(t *testing.T) {
		h := newHarness(t)
		ev := h.submitted(t)
		for _, a := range []Actor{h.reviewer2, h.manager} {
			var pe *PermissionError
			if _, err := h.events.RecordDecision(ctx, ev.ID, a, models.DecisionApproved, ""); !errors.As(err, &pe) {
				t.Errorf("actor %s: err = %v, want PermissionError", a.Role, err)
			}
		}
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.planner, models.DecisionRejected, "Clashes with league night"); err != nil {
			t.Errorf("planner decision: %v", err)
		}
		if h.event(t, ev.ID).Status != models.EventStatusRejected {
			t.Error("planner rejection not applied")
		}
	})

	t.Run("decision from needs_revisions", func(t *testing.T) {
		h := newHarness(t)
		ev := h.submitted(t)
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionNeedsRevisions, "Add a price"); err != nil {
			t.Fatal(err)
		}
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionApproved, "Fine"); err != nil {
			t.Errorf("approve from needs_revisions: %v", err)
		}
		if len(h.db.st.approvals) != 2 {
			t.Errorf("approvals = %d, want 2", len(h.db.st.approvals))
		}
	})

	t.Run("terminal statuses", func(t *testing.T) {
		h := newHarness(t)
		ev := h.approved(t)
		var ce *PreconditionError
		if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionRejected, ""); !errors.As(err, &ce) {
			t.Errorf("decision on approved event: err = %v, want PreconditionError", err)
		}
	})
}

func TestRecordDecisionRollsBackOnApprovalFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.submitted(t)
	versionsBefore := len(h.versions(ev.ID, models.VersionKindManual))

	h.db.failApprovalCreate = errStore
	_, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionApproved, "Looks great")

	var se *StoreError
	if !errors.As(err, &se) || !errors.Is(err, errStore) {
		t.Fatalf("err = %v, want StoreError wrapping the approval failure", err)
	}
	if IsCompensation(err) {
		t.Error("successful rollback must not be reported as compensation failure")
	}
	if got := h.event(t, ev.ID).Status; got != models.EventStatusSubmitted {
		t.Errorf("status = %s, want submitted after rollback", got)
	}
	if n := len(h.versions(ev.ID, models.VersionKindManual)); n != versionsBefore {
		t.Errorf("versions = %d, want %d after rollback", n, versionsBefore)
	}
	if len(h.db.st.approvals) != 0 {
		t.Error("no approval row expected")
	}
	if contains(h.auditActions(ev.ID), "event.approved") {
		t.Error("failed decision must not be audited")
	}
	if h.notifier.to("manager@example.com", NotifyDecision) != 0 {
		t.Error("failed decision must not notify")
	}

	// the event can still be decided once the store recovers
	h.db.failApprovalCreate = nil
	if _, err := h.events.RecordDecision(ctx, ev.ID, h.reviewer, models.DecisionApproved, "Looks great"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := len(h.versions(ev.ID, models.VersionKindManual)); n != versionsBefore+1 {
		t.Errorf("versions after retry = %d, want %d", n, versionsBefore+1)
	}
}

func TestRecordDecisionRollsBackOnVersionFailure(t *testing.T) {
	h := newHarness(t)
	ev := h.submitted(t)

	h.db.failVersionAppend = errStore
	_, err := h.events.RecordDecision(context.Background(), ev.ID, h.reviewer, models.DecisionRejected, "")
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StoreError", err)
	}
	if got := h.event(t, ev.ID).Status; got != models.EventStatusSubmitted {
		t.Errorf("status = %s, want submitted", got)
	}
}

func TestRecordDecisionFailedRollbackIsCompensationError(t *testing.T) {
	h := newHarness(t)
	ev := h.submitted(t)

	h.db.failApprovalCreate = errStore
	h.db.failRollback = errors.New("connection lost during rollback")
	_, err := h.events.RecordDecision(context.Background(), ev.ID, h.reviewer, models.DecisionApproved, "")

	var ce *CompensationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CompensationError", err)
	}
	if !errors.Is(ce.Err, errStore) || ce.RollbackErr == nil {
		t.Errorf("compensation error = %+v", ce)
	}
}

func TestConcurrentStatusChangeIsPrecondition(t *testing.T) {
	h := newHarness(t)
	ev := h.submitted(t)

	// another reviewer's decision lands between load and write
	stale := h.event(t, ev.ID)
	stale.Status = models.EventStatusRejected
	h.db.st.events[ev.ID] = stale
	err := memEvents{h.db}.TransitionStatus(context.Background(), ev.ID, models.EventStatusSubmitted, models.EventStatusApproved)
	if !errors.Is(err, repositories.ErrStatusConflict) {
		t.Fatalf("fake should report status conflict, got %v", err)
	}

	var ce *PreconditionError
	if !errors.As(storeErr("recording decision", err), &ce) {
		t.Error("status conflict should surface as PreconditionError")
	}
}

func TestVersionNumbersAreMonotonicPerKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.draft(t)

	in := h.input("Quiz Night", 18, 20)
	for _, note := range []string{"Bring pens", "Bring pens and paper", "Table cards"} {
		in.Notes = note
		if _, err := h.events.UpdateDraft(ctx, ev.ID, h.manager, in); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := h.timeline.RecordAIMetadata(ctx, ev.ID, h.manager, map[string]any{"public_title": "Quiz!"}); err != nil {
			t.Fatal(err)
		}
	}

	for kind, want := range map[string]int{models.VersionKindManual: 4, models.VersionKindAI: 2} {
		vs := h.versions(ev.ID, kind)
		if len(vs) != want {
			t.Fatalf("%s versions = %d, want %d", kind, len(vs), want)
		}
		for i, v := range vs {
			if v.Version != i+1 {
				t.Errorf("%s version[%d] = %d, want %d", kind, i, v.Version, i+1)
			}
		}
	}
}

func TestAuditAndNotifyFailuresAreSwallowed(t *testing.T) {
	h := newHarness(t)
	h.db.failAudit = errStore
	h.notifier.fail = errStore

	ev := h.approved(t)
	if h.event(t, ev.ID).Status != models.EventStatusApproved {
		t.Error("workflow must complete despite audit and notification failures")
	}
	if len(h.db.st.audit) != 0 {
		t.Error("no audit entries expected")
	}
}

func TestSubmitDebrief(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.approved(t)

	attendance := 64
	baseline, takings := 800.0, 1000.0
	in := DebriefInput{Attendance: &attendance, BaselineTakings: &baseline, Takings: &takings, Highlights: "Full house"}

	ev, d, err := h.events.SubmitDebrief(ctx, ev.ID, h.manager, in)
	if err != nil {
		t.Fatalf("SubmitDebrief: %v", err)
	}
	if ev.Status != models.EventStatusCompleted || h.event(t, ev.ID).Status != models.EventStatusCompleted {
		t.Errorf("status = %s, want completed", ev.Status)
	}
	if d.Highlights != "Full house" {
		t.Errorf("debrief = %+v", d)
	}

	entry := h.lastAudit(t, ev.ID, models.AuditEventDebriefUpdated)
	labels, _ := entry.Meta["changed_fields"].([]string)
	if len(labels) != 4 || labels[0] != "Attendance" || labels[3] != "Highlights" {
		t.Errorf("changed labels = %v", labels)
	}
	if entry.Meta["uplift_amount"] != 200.0 || entry.Meta["uplift_percent"] != 25.0 {
		t.Errorf("uplift meta = %v / %v", entry.Meta["uplift_amount"], entry.Meta["uplift_percent"])
	}
	if h.notifier.to("manager@example.com", NotifyDebriefDigest) != 1 || h.notifier.to("planner@example.com", NotifyDebriefDigest) != 1 {
		t.Error("digest should reach creator and planner once each")
	}

	// re-saving on a completed event keeps it completed and reports only real changes
	in.Issues = "Ran out of pens"
	if _, _, err := h.events.SubmitDebrief(ctx, ev.ID, h.manager, in); err != nil {
		t.Fatalf("second SubmitDebrief: %v", err)
	}
	entry = h.lastAudit(t, ev.ID, models.AuditEventDebriefUpdated)
	if labels, _ := entry.Meta["changed_fields"].([]string); len(labels) != 1 || labels[0] != "Issues" {
		t.Errorf("second changed labels = %v", entry.Meta["changed_fields"])
	}
}

func TestSubmitDebriefRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sub := h.submitted(t)
	var ce *PreconditionError
	if _, _, err := h.events.SubmitDebrief(ctx, sub.ID, h.manager, DebriefInput{}); !errors.As(err, &ce) {
		t.Errorf("submitted event: err = %v, want PreconditionError", err)
	}

	ev := h.approved(t)
	var pe *PermissionError
	if _, _, err := h.events.SubmitDebrief(ctx, ev.ID, h.reviewer, DebriefInput{}); !errors.As(err, &pe) {
		t.Errorf("reviewer debrief: err = %v, want PermissionError", err)
	}

	neg := -1
	var ve *ValidationError
	if _, _, err := h.events.SubmitDebrief(ctx, ev.ID, h.manager, DebriefInput{Attendance: &neg}); !errors.As(err, &ve) || ve.Field != "attendance" {
		t.Errorf("negative attendance: err = %v, want attendance ValidationError", err)
	}
}

func TestSubmitDebriefElevatedWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("elevated path used first", func(t *testing.T) {
		h := newHarness(t)
		h.withElevated()
		ev := h.approved(t)
		if _, _, err := h.events.SubmitDebrief(ctx, ev.ID, h.manager, DebriefInput{Highlights: "ok"}); err != nil {
			t.Fatal(err)
		}
		if h.db.elevatedCalls != 1 || h.event(t, ev.ID).Status != models.EventStatusCompleted {
			t.Errorf("elevated calls = %d, status = %s", h.db.elevatedCalls, h.event(t, ev.ID).Status)
		}
	})

	t.Run("falls back to caller path", func(t *testing.T) {
		h := newHarness(t)
		h.withElevated()
		h.db.failElevated = errors.New("permission denied for role service")
		ev := h.approved(t)
		if _, _, err := h.events.SubmitDebrief(ctx, ev.ID, h.manager, DebriefInput{Highlights: "ok"}); err != nil {
			t.Fatal(err)
		}
		if h.event(t, ev.ID).Status != models.EventStatusCompleted {
			t.Error("fallback should complete the event")
		}
	})
}

func TestStatusChangesArePublished(t *testing.T) {
	h := newHarness(t)
	h.approved(t)

	var statuses []string
	for _, e := range h.publisher.events {
		if e.Type == events.EventStatusChanged {
			statuses = append(statuses, e.Payload["new_status"].(string))
		}
	}
	if len(statuses) != 2 || statuses[0] != "submitted" || statuses[1] != "approved" {
		t.Errorf("published statuses = %v", statuses)
	}
}

func TestGetEventAndHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev := h.approved(t)

	detail, err := h.events.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.VenueName != "The Crown" || len(detail.Approvals) != 1 || detail.Debrief != nil {
		t.Errorf("detail = %+v", detail)
	}
	if detail.SLA.Bucket != "on_track" {
		t.Errorf("sla = %+v", detail.SLA)
	}

	history, err := h.events.History(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{models.AuditEventCreated, models.AuditEventSubmitted, "event.approved"}
	if len(history) != len(want) {
		t.Fatalf("history = %d entries, want %d", len(history), len(want))
	}
	for i, a := range history {
		if a.Action != want[i] {
			t.Errorf("history[%d] = %s, want %s", i, a.Action, want[i])
		}
	}

	if _, err := h.events.GetEvent(ctx, uuid.New()); !IsNotFound(err) {
		t.Errorf("missing event: err = %v", err)
	}
}

func TestListEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.draft(t)
	h.submitted(t)

	submitted := models.EventStatusSubmitted
	list, err := h.events.ListEvents(ctx, repositories.EventFilter{Status: &submitted})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != submitted {
		t.Errorf("list = %+v", list)
	}

	bogus := "archived"
	var ve *ValidationError
	if _, err := h.events.ListEvents(ctx, repositories.EventFilter{Status: &bogus}); !errors.As(err, &ve) {
		t.Errorf("bogus status: err = %v", err)
	}
}
