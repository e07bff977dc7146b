package rbac

// Role constants
const (
	RoleVenueManager   = "venue_manager"
	RoleReviewer       = "reviewer"
	RoleCentralPlanner = "central_planner"
)

// Operation constants
const (
	OpCreateDraft      = "create_draft"
	OpUpdateDraft      = "update_draft"
	OpSubmit           = "submit"
	OpDecide           = "decide"
	OpReassign         = "reassign"
	OpDebrief          = "debrief"
	OpRecordAIMetadata = "record_ai_metadata"
)

// Relation describes how the actor relates to the event being acted on.
type Relation string

const (
	RelAny      Relation = "any"
	RelCreator  Relation = "creator"
	RelAssignee Relation = "assignee"
)

type rule struct {
	role     string
	relation Relation
}

// Policy lists, per operation, the (role, relation) pairs that are allowed.
// A RelAny rule matches regardless of the actor's relation to the event.
var Policy = map[string][]rule{
	OpCreateDraft: {
		{RoleVenueManager, RelAny},
		{RoleCentralPlanner, RelAny},
	},
	OpUpdateDraft: {
		{RoleVenueManager, RelCreator},
		{RoleReviewer, RelCreator},
		{RoleCentralPlanner, RelAny},
	},
	OpSubmit: {
		{RoleVenueManager, RelCreator},
		{RoleReviewer, RelCreator},
		{RoleCentralPlanner, RelAny},
	},
	OpDecide: {
		{RoleReviewer, RelAssignee},
		{RoleVenueManager, RelAssignee},
		{RoleCentralPlanner, RelAny},
	},
	OpReassign: {
		{RoleCentralPlanner, RelAny},
	},
	OpDebrief: {
		{RoleVenueManager, RelCreator},
		{RoleReviewer, RelCreator},
		{RoleCentralPlanner, RelAny},
	},
	OpRecordAIMetadata: {
		{RoleVenueManager, RelCreator},
		{RoleReviewer, RelCreator},
		{RoleReviewer, RelAssignee},
		{RoleCentralPlanner, RelAny},
	},
}

// Allowed reports whether role may perform op given the relations the actor holds.
func Allowed(op, role string, rels ...Relation) bool {
	rules, ok := Policy[op]
	if !ok {
		return false
	}
	for _, r := range rules {
		if r.role != role {
			continue
		}
		if r.relation == RelAny {
			return true
		}
		for _, rel := range rels {
			if rel == r.relation {
				return true
			}
		}
	}
	return false
}

// IsValidRole checks the role enum.
func IsValidRole(role string) bool {
	return role == RoleVenueManager || role == RoleReviewer || role == RoleCentralPlanner
}

// CanReview reports whether a user with role may be assigned as an event's reviewer.
func CanReview(role string) bool {
	return role == RoleReviewer || role == RoleCentralPlanner
}

func IsPlanner(role string) bool {
	return role == RoleCentralPlanner
}
