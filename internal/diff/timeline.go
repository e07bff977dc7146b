package diff

import (
	"fmt"
	"sort"
	"time"
)

type Filter string

const (
	FilterAll    Filter = "all"
	FilterManual Filter = "manual"
	FilterAI     Filter = "ai"
)

func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterManual, FilterAI:
		return Filter(s), nil
	}
	return "", fmt.Errorf("unknown timeline filter %q, must be one of: all, manual, ai", s)
}

func (f Filter) includes(s Source) bool {
	return f == FilterAll || string(f) == string(s)
}

// Revision is one stored version of a stream.
type Revision struct {
	Version    int
	OccurredAt time.Time
	Actor      string
	Payload    Snapshot
}

// Stream is an ordered history from one source. In a cumulative stream each payload
// overlays the state built from earlier payloads, so partial payloads such as status
// markers only report their own keys. Otherwise each payload is a whole snapshot.
type Stream struct {
	Source     Source
	Cumulative bool
	Revisions  []Revision
}

type Entry struct {
	Source     Source    `json:"source"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor,omitempty"`
	Changes    []Change  `json:"changes"`
}

// BuildTimeline diffs every stream against itself and merges the entries newest first.
// Ties on OccurredAt are broken by the higher version.
func BuildTimeline(filter Filter, streams ...Stream) []Entry {
	entries := []Entry{}
	for _, st := range streams {
		if !filter.includes(st.Source) {
			continue
		}
		entries = append(entries, st.entries()...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		return entries[i].Version > entries[j].Version
	})
	return entries
}

func (st Stream) entries() []Entry {
	revs := make([]Revision, len(st.Revisions))
	copy(revs, st.Revisions)
	sort.SliceStable(revs, func(i, j int) bool { return revs[i].Version < revs[j].Version })

	out := make([]Entry, 0, len(revs))
	var prev Snapshot
	for _, r := range revs {
		next := r.Payload
		if st.Cumulative {
			next = overlay(prev, r.Payload)
		}
		out = append(out, Entry{
			Source:     st.Source,
			Version:    r.Version,
			OccurredAt: r.OccurredAt,
			Actor:      r.Actor,
			Changes:    Compute(prev, next, st.Source),
		})
		prev = next
	}
	return out
}

func overlay(base, payload Snapshot) Snapshot {
	out := make(Snapshot, len(base)+len(payload))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range payload {
		out[k] = v
	}
	return out
}
