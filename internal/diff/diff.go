// Package diff compares field snapshots of an event and merges the resulting change sets
// into a single timeline.
package diff

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/fields"
)

// Source tags where a snapshot came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceAI     Source = "ai"
)

// Snapshot is a free-form field/value map as stored in a version payload.
type Snapshot map[string]any

type Change struct {
	Field  string `json:"field"`
	Label  string `json:"label"`
	Before any    `json:"before"` // nil renders as "none"
	After  any    `json:"after"`
	Source Source `json:"source"`
}

// Compute returns one change per field whose normalized value differs between prev and
// next. A nil prev reports every non-empty field of next as set from none.
func Compute(prev, next Snapshot, source Source) []Change {
	reg := fields.Default()
	changes := []Change{}

	for _, key := range unionKeys(reg, prev, next) {
		after := valueOrNil(next[key])
		if prev == nil {
			if after == nil {
				continue
			}
			changes = append(changes, Change{Field: key, Label: reg.Label(key), After: after, Source: source})
			continue
		}
		if Equal(prev[key], next[key]) {
			continue
		}
		changes = append(changes, Change{
			Field:  key,
			Label:  reg.Label(key),
			Before: valueOrNil(prev[key]),
			After:  after,
			Source: source,
		})
	}
	return changes
}

// ChangedFields returns the keys Compute would report, in the same order.
func ChangedFields(prev, next Snapshot) []string {
	changes := Compute(prev, next, SourceManual)
	keys := make([]string, 0, len(changes))
	for _, c := range changes {
		keys = append(keys, c.Field)
	}
	return keys
}

// IsEmpty reports whether v counts as "none": nil, blank strings, empty slices and maps.
func IsEmpty(v any) bool {
	return normalize(v) == nil
}

// Equal compares two field values after normalization. Slices compare element-wise,
// scalars by value and objects by their canonical JSON encoding.
func Equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}

	switch x := na.(type) {
	case []any:
		y, ok := nb.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case string, float64, bool:
		return na == nb
	default:
		return bytes.Equal(canonical(na), canonical(nb))
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return x
	case *string:
		if x == nil {
			return nil
		}
		return normalize(*x)
	case bool:
		return x
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.UTC().Format(time.RFC3339)
	case []any:
		if len(x) == 0 {
			return nil
		}
		return x
	case map[string]any:
		if len(x) == 0 {
			return nil
		}
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		if rv.Len() == 0 {
			return nil
		}
	}
	return v
}

func canonical(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(reflect.TypeOf(v).String())
	}
	return b
}

func valueOrNil(v any) any {
	if IsEmpty(v) {
		return nil
	}
	return v
}

func unionKeys(reg *fields.Registry, a, b Snapshot) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []Snapshot{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	reg.Sort(keys)
	return keys
}
