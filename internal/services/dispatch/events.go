package dispatch

import "strings"

// Entity and action labels produced by classification
const (
	EntityJob     = "job"
	EntityTimeoff = "timeoff"
	EntityPerson  = "person"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is a classified HRIS webhook payload
type Event struct {
	Entity string
	Action string
	ID     string
}

// normToken lowercases and collapses the separator variants senders use
// (job.create, job_create, JOB-CREATE) onto dots
func normToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", ".", "-", ".").Replace(s)
}

// firstString returns the first non-empty string value among the given keys
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// ParseHRISEvent classifies a raw webhook body. The second return is false
// when the payload names no entity the hub reconciles
func ParseHRISEvent(body map[string]any) (Event, bool) {
	evtype := normToken(firstString(body, "type", "eventType", "eventtype", "event_type", "event"))
	entity := normToken(firstString(body, "entityType", "entitytype", "entity_type", "entity"))
	id := firstString(body, "entityId", "entityid", "entity_id", "id")

	// senders that omit entityType carry it as the event type prefix
	// ("timeoff.create" → "timeoff")
	if entity == "" {
		if i := strings.LastIndex(evtype, "."); i > 0 {
			entity = evtype[:i]
		}
	}

	ev := Event{ID: id}
	switch {
	case strings.Contains(entity, "job"):
		ev.Entity = EntityJob
	case strings.Contains(entity, "time.off") || strings.Contains(entity, "timeoff"):
		ev.Entity = EntityTimeoff
	case strings.Contains(entity, "person") || strings.Contains(entity, "people"):
		ev.Entity = EntityPerson
	default:
		return ev, false
	}

	switch {
	case strings.Contains(evtype, "delete") || strings.Contains(evtype, "remove"):
		ev.Action = ActionDelete
	case strings.Contains(evtype, "create") || strings.Contains(evtype, "new"):
		ev.Action = ActionCreate
	case strings.Contains(evtype, "update") || strings.Contains(evtype, "change"):
		ev.Action = ActionUpdate
	}
	return ev, true
}
