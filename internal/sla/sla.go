// Package sla buckets a submitted event by how close its start time is. Nothing here is
// persisted; callers recompute on every read.
package sla

import (
	"fmt"
	"math"
	"time"
)

type Bucket string

const (
	BucketMuted   Bucket = "muted"
	BucketOnTrack Bucket = "on_track"
	BucketWarning Bucket = "warning"
	BucketOverdue Bucket = "overdue"
)

// WarningDays is the diffDays threshold below which a review is no longer on track.
const WarningDays = 3

const (
	ActionFollowUp = "Follow up within 24h"
	ActionEscalate = "Escalate to planner"
)

type Status struct {
	Bucket   Bucket `json:"bucket"`
	Label    string `json:"label"`
	Action   string `json:"action,omitempty"`
	DiffDays *int   `json:"diff_days,omitempty"` // nil when there is no date
}

// Evaluate buckets start relative to now using diffDays = ceil((start - now) / 24h).
func Evaluate(start *time.Time, now time.Time) Status {
	if start == nil || start.IsZero() {
		return Status{Bucket: BucketMuted, Label: "No date"}
	}

	days := int(math.Ceil(start.Sub(now).Hours() / 24))
	if days == 0 {
		days = 0 // normalize -0
	}
	st := Status{DiffDays: &days}

	switch {
	case days >= WarningDays:
		st.Bucket = BucketOnTrack
		st.Label = fmt.Sprintf("Due in %s", pluralDays(days))
	case days >= 0:
		st.Bucket = BucketWarning
		st.Action = ActionFollowUp
		if days == 0 {
			st.Label = "Decision due today"
		} else {
			st.Label = fmt.Sprintf("Due in %s", pluralDays(days))
		}
	default:
		st.Bucket = BucketOverdue
		st.Action = ActionEscalate
		st.Label = fmt.Sprintf("Overdue by %s", pluralDays(-days))
	}
	return st
}

func (s Status) NeedsAttention() bool {
	return s.Bucket == BucketWarning || s.Bucket == BucketOverdue
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
