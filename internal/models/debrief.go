package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TrackedDebriefFields is the fixed set of debrief fields whose changes are audited.
var TrackedDebriefFields = []struct {
	Key   string
	Label string
}{
	{"attendance", "Attendance"},
	{"baseline_takings", "Baseline takings"},
	{"takings", "Takings"},
	{"highlights", "Highlights"},
	{"issues", "Issues"},
	{"follow_ups", "Follow-ups"},
}

type Debrief struct {
	EventID         uuid.UUID `json:"event_id"`
	Attendance      *int      `json:"attendance,omitempty"`
	BaselineTakings *float64  `json:"baseline_takings,omitempty"`
	Takings         *float64  `json:"takings,omitempty"`
	Highlights      string    `json:"highlights,omitempty"`
	Issues          string    `json:"issues,omitempty"`
	FollowUps       string    `json:"follow_ups,omitempty"`
	SubmittedBy     uuid.UUID `json:"submitted_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Values returns the tracked fields keyed like TrackedDebriefFields. Unset numbers are nil.
func (d *Debrief) Values() map[string]any {
	if d == nil {
		return map[string]any{}
	}
	v := map[string]any{
		"highlights": d.Highlights,
		"issues":     d.Issues,
		"follow_ups": d.FollowUps,
	}
	if d.Attendance != nil {
		v["attendance"] = *d.Attendance
	}
	if d.BaselineTakings != nil {
		v["baseline_takings"] = *d.BaselineTakings
	}
	if d.Takings != nil {
		v["takings"] = *d.Takings
	}
	return v
}

// SalesUplift compares takings against the baseline. ok is false when either is missing
// or the baseline is not positive.
func (d *Debrief) SalesUplift() (amount, percent float64, ok bool) {
	if d == nil || d.Takings == nil || d.BaselineTakings == nil || *d.BaselineTakings <= 0 {
		return 0, 0, false
	}
	amount = *d.Takings - *d.BaselineTakings
	percent = math.Round(amount / *d.BaselineTakings * 1000) / 10
	return amount, percent, true
}
