package events

import "context"

// Channel carrying event lifecycle changes.
const ChannelEvents = "events:event"

// Event types
const (
	EventStatusChanged   = "event_status_changed"
	EventAssigneeChanged = "event_assignee_changed"
	EventDebriefUpdated  = "event_debrief_updated"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// UserIDs returns the user ids named in the payload, used to route the event to
// connected websocket clients.
func (e Event) UserIDs() []string {
	var out []string
	for _, key := range []string{"created_by", "assignee_id", "previous_assignee_id"} {
		if v, ok := e.Payload[key].(string); ok && v != "" {
			out = append(out, v)
		}
	}
	return out
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
