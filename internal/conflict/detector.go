// Package conflict finds upcoming events that book the same venue space at overlapping times.
package conflict

import (
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
)

// Spaces is a parsed venue_space value. Comparison is case-insensitive; the first
// spelling seen is kept for display.
type Spaces struct {
	set     mapset.Set[string]
	display map[string]string
}

// ParseSpaces splits a comma-delimited space list. Blank entries are dropped.
func ParseSpaces(raw string) Spaces {
	s := Spaces{set: mapset.NewThreadUnsafeSet[string](), display: map[string]string{}}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if s.set.Add(key) {
			s.display[key] = name
		}
	}
	return s
}

func (s Spaces) Len() int { return s.set.Cardinality() }

// Shared returns the spaces present in both lists, spelled as in s, sorted case-insensitively.
func (s Spaces) Shared(other Spaces) []string {
	common := s.set.Intersect(other.set).ToSlice()
	sort.Strings(common)
	out := make([]string, 0, len(common))
	for _, key := range common {
		out = append(out, s.display[key])
	}
	return out
}

type Side struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type Pair struct {
	First   Side      `json:"first"`
	Second  Side      `json:"second"`
	VenueID uuid.UUID `json:"venue_id"`
	Spaces  []string  `json:"spaces"`
	Label   string    `json:"label"`
}

// Overlaps is half-open interval overlap: an event ending exactly when another starts
// does not conflict with it.
func Overlaps(a, b models.Event) bool {
	return a.EndAt.After(b.StartAt) && a.StartAt.Before(b.EndAt)
}

// Detect returns each conflicting unordered pair once among events starting at or after now.
// Candidates are ordered by start time then id, so the result does not depend on input order.
// Pairwise comparison is fine for the dozens of upcoming events a venue group has.
func Detect(events []models.Event, now time.Time) []Pair {
	candidates := make([]models.Event, 0, len(events))
	for _, e := range events {
		if !e.StartAt.Before(now) {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].StartAt.Equal(candidates[j].StartAt) {
			return candidates[i].StartAt.Before(candidates[j].StartAt)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	spaces := make([]Spaces, len(candidates))
	for i := range candidates {
		spaces[i] = ParseSpaces(candidates[i].VenueSpace)
	}

	pairs := []Pair{}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if a.VenueID != b.VenueID || spaces[i].Len() == 0 || spaces[j].Len() == 0 {
				continue
			}
			shared := spaces[i].Shared(spaces[j])
			if len(shared) == 0 || !Overlaps(a, b) {
				continue
			}
			pairs = append(pairs, Pair{
				First:   side(a),
				Second:  side(b),
				VenueID: a.VenueID,
				Spaces:  shared,
				Label:   strings.Join(shared, ", "),
			})
		}
	}
	return pairs
}

func side(e models.Event) Side {
	return Side{ID: e.ID, Title: e.Title, StartAt: e.StartAt, EndAt: e.EndAt}
}
