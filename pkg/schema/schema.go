// Package schema holds the parsed, normalized description of one entity
// type: fields, enumerations, relationships, and verb conjugations.
// Schemas are pure data, immutable after construction, and are consumed by
// the providers and the entity registry.
// See docs/ARCHITECTURE.md § Schema Model.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mesh-intelligence/tapestry/internal/inflect"
)

// Field kinds.
const (
	KindPlain = "plain"
	KindEnum  = "enum"
)

// Relationship directions.
const (
	Forward  = "forward"
	Backward = "backward"
)

// Field describes one attribute of an entity type.
type Field struct {
	Name     string   `json:"name" yaml:"name"`
	Kind     string   `json:"kind" yaml:"kind"` // plain | enum
	Type     string   `json:"type" yaml:"type"` // string, number, bool, any
	Required bool     `json:"required" yaml:"required"`
	Unique   bool     `json:"unique" yaml:"unique"`
	Indexed  bool     `json:"indexed" yaml:"indexed"`
	Array    bool     `json:"array" yaml:"array"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"` // declaration order preserved
}

// Relationship describes a named link to another entity type. Forward
// relationships store the foreign id inline on this type; backward
// relationships resolve through Backref on the target type.
type Relationship struct {
	Name      string `json:"name" yaml:"name"`
	Direction string `json:"direction" yaml:"direction"`
	Target    string `json:"target" yaml:"target"`
	Backref   string `json:"backref,omitempty" yaml:"backref,omitempty"`
	Many      bool   `json:"many" yaml:"many"`
}

// Definition is the declarative input for one entity type, typically the
// output of an external authoring surface. New normalizes it into a Schema.
type Definition struct {
	Name          string         `json:"name" yaml:"name"`
	Fields        []Field        `json:"fields" yaml:"fields"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Verbs         []VerbDef      `json:"verbs,omitempty" yaml:"verbs,omitempty"`
	DisabledVerbs []string       `json:"disabled_verbs,omitempty" yaml:"disabled_verbs,omitempty"`
}

// Schema is the normalized, immutable model for one entity type.
type Schema struct {
	Name     string
	Singular string
	Plural   string
	Slug     string

	fields    []Field
	fieldIdx  map[string]int
	relations []Relationship
	relIdx    map[string]int
	verbs     map[string]Verb
	verbOrder []string
	disabled  map[string]bool
}

// New normalizes a Definition into a Schema. Field, relationship, and verb
// names must be mutually exclusive within the definition.
func New(def Definition) (*Schema, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("schema: entity type name must not be empty")
	}

	s := &Schema{
		Name:     def.Name,
		Singular: inflect.LowerFirst(def.Name),
		Plural:   inflect.Collection(def.Name),
		Slug:     inflect.Slug(def.Name),
		fieldIdx: make(map[string]int),
		relIdx:   make(map[string]int),
		verbs:    make(map[string]Verb),
		disabled: make(map[string]bool),
	}

	seen := make(map[string]string) // name -> role, for exclusivity checks

	for _, f := range def.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field with empty name", def.Name)
		}
		if role, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("schema %s: %q already declared as %s", def.Name, f.Name, role)
		}
		if f.Kind == "" {
			f.Kind = KindPlain
			if len(f.Enum) > 0 {
				f.Kind = KindEnum
			}
		}
		seen[f.Name] = "field"
		s.fieldIdx[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	for _, r := range def.Relationships {
		if r.Name == "" || r.Target == "" {
			return nil, fmt.Errorf("schema %s: relationship needs name and target", def.Name)
		}
		if role, ok := seen[r.Name]; ok {
			return nil, fmt.Errorf("schema %s: %q already declared as %s", def.Name, r.Name, role)
		}
		if r.Direction != Forward && r.Direction != Backward {
			return nil, fmt.Errorf("schema %s: relationship %q has direction %q", def.Name, r.Name, r.Direction)
		}
		if r.Direction == Backward && r.Backref == "" {
			return nil, fmt.Errorf("schema %s: backward relationship %q needs a backref", def.Name, r.Name)
		}
		seen[r.Name] = "relationship"
		s.relIdx[r.Name] = len(s.relations)
		s.relations = append(s.relations, r)
	}

	for _, name := range def.DisabledVerbs {
		s.disabled[name] = true
	}

	// CRUD verbs are implicit unless explicitly disabled.
	for _, action := range []string{VerbCreate, VerbUpdate, VerbDelete} {
		s.addVerb(Conjugate(VerbDef{Action: action}))
	}

	for _, vd := range def.Verbs {
		if vd.Action == "" {
			return nil, fmt.Errorf("schema %s: verb with empty action", def.Name)
		}
		if role, ok := seen[vd.Action]; ok {
			return nil, fmt.Errorf("schema %s: %q already declared as %s", def.Name, vd.Action, role)
		}
		seen[vd.Action] = "verb"
		s.addVerb(Conjugate(vd))
	}

	return s, nil
}

// MustNew is New for statically known definitions; it panics on error.
func MustNew(def Definition) *Schema {
	s, err := New(def)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) addVerb(v Verb) {
	if _, ok := s.verbs[v.Action]; !ok {
		s.verbOrder = append(s.verbOrder, v.Action)
	}
	s.verbs[v.Action] = v
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.fieldIdx[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Relationship returns the named relationship.
func (s *Schema) Relationship(name string) (Relationship, bool) {
	i, ok := s.relIdx[name]
	if !ok {
		return Relationship{}, false
	}
	return s.relations[i], true
}

// Relationships returns relationships in declaration order.
func (s *Schema) Relationships() []Relationship {
	return s.relations
}

// Verb returns the named verb conjugation. Disabled verbs report false,
// the same as undeclared ones.
func (s *Schema) Verb(action string) (Verb, bool) {
	if s.disabled[action] {
		return Verb{}, false
	}
	v, ok := s.verbs[action]
	return v, ok
}

// Verbs returns enabled verb actions in declaration order, CRUD first.
func (s *Schema) Verbs() []string {
	out := make([]string, 0, len(s.verbOrder))
	for _, action := range s.verbOrder {
		if !s.disabled[action] {
			out = append(out, action)
		}
	}
	return out
}

// Disabled reports whether the verb was removed from the public surface.
func (s *Schema) Disabled(action string) bool {
	return s.disabled[action]
}

// Custom reports whether action is a declared non-CRUD verb.
func (s *Schema) Custom(action string) bool {
	if action == VerbCreate || action == VerbUpdate || action == VerbDelete {
		return false
	}
	_, ok := s.verbs[action]
	return ok
}

// StatusField returns the enumeration field conventionally targeted by
// custom verbs: the field literally named "status" when it is an
// enumeration, otherwise the first declared enumeration field.
func (s *Schema) StatusField() (Field, bool) {
	if f, ok := s.Field(StatusAttr); ok && f.Kind == KindEnum {
		return f, true
	}
	for _, f := range s.fields {
		if f.Kind == KindEnum {
			return f, true
		}
	}
	return Field{}, false
}

// Set is a registry of schemas indexed by entity type name.
type Set struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*Schema
}

// NewSet returns an empty schema set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Schema)}
}

// Register adds or replaces the schema for its type name.
func (set *Set) Register(s *Schema) {
	set.mu.Lock()
	defer set.mu.Unlock()
	if _, ok := set.byName[s.Name]; !ok {
		set.order = append(set.order, s.Name)
	}
	set.byName[s.Name] = s
}

// Get returns the schema for the exact type name.
func (set *Set) Get(name string) (*Schema, bool) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	s, ok := set.byName[name]
	return s, ok
}

// GetFold returns the schema whose type name matches case-insensitively.
func (set *Set) GetFold(name string) (*Schema, bool) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	if s, ok := set.byName[name]; ok {
		return s, true
	}
	for n, s := range set.byName {
		if strings.EqualFold(n, name) {
			return s, true
		}
	}
	return nil, false
}

// Has reports whether the exact type name is registered.
func (set *Set) Has(name string) bool {
	_, ok := set.Get(name)
	return ok
}

// Names returns registered type names in registration order.
func (set *Set) Names() []string {
	set.mu.RLock()
	defer set.mu.RUnlock()
	out := make([]string, len(set.order))
	copy(out, set.order)
	return out
}

// Reset removes every registered schema.
func (set *Set) Reset() {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.order = nil
	set.byName = make(map[string]*Schema)
}
