package schema

import (
	"time"

	"github.com/mesh-intelligence/tapestry/internal/inflect"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Implicit CRUD verb actions.
const (
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// StatusAttr is the conventional attribute custom verbs transition, and
// ActorAttr is the payload key carrying actor attribution for a verb call.
const (
	StatusAttr = "status"
	ActorAttr  = "actor"
)

// VerbDef is the declarative form of one verb: the action name plus the
// declared target value written into the status attribute. Conjugated
// forms and attribution field names may be given explicitly; empty ones
// are derived.
type VerbDef struct {
	Action     string `json:"action" yaml:"action"`
	Target     string `json:"target,omitempty" yaml:"target,omitempty"`
	Activity   string `json:"activity,omitempty" yaml:"activity,omitempty"`
	Event      string `json:"event,omitempty" yaml:"event,omitempty"`
	ActorField string `json:"actor_field,omitempty" yaml:"actor_field,omitempty"`
	TimeField  string `json:"time_field,omitempty" yaml:"time_field,omitempty"`
}

// Verb is the normalized conjugation of one state transition.
type Verb struct {
	Action     string // imperative: launch
	Activity   string // present participle: launching
	Event      string // past participle: launched
	ActorField string // attribute for actor attribution: launched_by
	TimeField  string // attribute for timestamp attribution: launched_at
	Target     string // declared status value written by the transition
}

// crud reports whether action is one of the implicit CRUD verbs.
func crud(action string) bool {
	return action == VerbCreate || action == VerbUpdate || action == VerbDelete
}

// Conjugate derives the full conjugation for a verb definition. CRUD verbs
// get no attribution fields; their timestamps are the reserved
// created_at/updated_at attributes.
func Conjugate(def VerbDef) Verb {
	v := Verb{
		Action:     def.Action,
		Activity:   def.Activity,
		Event:      def.Event,
		ActorField: def.ActorField,
		TimeField:  def.TimeField,
		Target:     def.Target,
	}
	if v.Activity == "" {
		v.Activity = inflect.Activity(def.Action)
	}
	if v.Event == "" {
		v.Event = inflect.Past(def.Action)
	}
	if !crud(def.Action) {
		if v.ActorField == "" {
			v.ActorField = v.Event + "_by"
		}
		if v.TimeField == "" {
			v.TimeField = v.Event + "_at"
		}
		if v.Target == "" {
			v.Target = v.Event
		}
	}
	return v
}

// VerbPatch computes the attribute changes a custom verb applies on top of
// the stored instance: caller-supplied data, the status transition, and
// actor/timestamp attribution.
//
// Status resolution is two-tier. When the verb's declared target value is
// a member of the schema's status enumeration, the enumeration path sets
// that field to the member. When no enumeration match exists, the same
// conventional field still receives the literal declared value verbatim.
func (s *Schema) VerbPatch(v Verb, data types.Instance, now time.Time) types.Instance {
	patch := make(types.Instance, len(data)+3)
	for k, val := range data {
		if k == ActorAttr || types.Reserved(k) {
			continue
		}
		patch[k] = val
	}

	// Tier one: the target is a member of the status enumeration. Tier
	// two: no member matches and the literal declared value is written
	// verbatim. Both tiers land on the same conventional field, so the
	// write below covers both; EnumTarget exposes which tier applied.
	statusAttr := StatusAttr
	if f, ok := s.StatusField(); ok {
		statusAttr = f.Name
	}
	patch[statusAttr] = v.Target

	if v.ActorField != "" {
		if actor, ok := data[ActorAttr].(string); ok && actor != "" {
			patch[v.ActorField] = actor
		}
	}
	if v.TimeField != "" {
		patch[v.TimeField] = now.UTC().Format(time.RFC3339)
	}
	return patch
}

// EnumTarget reports whether the verb's declared target value is a member
// of the schema's status enumeration, i.e. whether a transition takes the
// enumeration path rather than the verbatim fallback.
func (s *Schema) EnumTarget(v Verb) bool {
	f, ok := s.StatusField()
	return ok && enumMember(f.Enum, v.Target)
}

func enumMember(values []string, v string) bool {
	for _, m := range values {
		if m == v {
			return true
		}
	}
	return false
}
