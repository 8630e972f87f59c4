package tapestry

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// DefaultContextURL tags instances created outside any tenant scope.
const DefaultContextURL = "tapestry://default"

// Registry is the universal context: a name-indexed facade over every
// registered entity type plus the cross-cutting search/fetch/do surface.
// A Registry owns one storage provider at a time; the lifecycle methods in
// lifecycle.go govern that wiring.
type Registry struct {
	mu          sync.RWMutex
	schemas     *schema.Set
	hooks       *hookSet
	bus         *Bus
	handles     map[string]*Entity
	provider    types.Provider
	initialized bool
	lazy        bool
	contextURL  string
	alerts      []string
}

// NewRegistry returns an empty, uninitialized registry. Schemas may be
// registered before the storage backend is initialized.
func NewRegistry() *Registry {
	return &Registry{
		schemas:    schema.NewSet(),
		hooks:      newHookSet(),
		bus:        NewBus(),
		handles:    make(map[string]*Entity),
		contextURL: DefaultContextURL,
	}
}

// Register normalizes and registers an entity type definition.
func (r *Registry) Register(def schema.Definition) error {
	s, err := schema.New(def)
	if err != nil {
		return err
	}
	r.RegisterSchema(s)
	return nil
}

// RegisterSchema registers an already-normalized schema.
func (r *Registry) RegisterSchema(s *schema.Schema) {
	r.schemas.Register(s)
}

// Has reports whether an entity type is registered under name.
func (r *Registry) Has(name string) bool {
	return r.schemas.Has(name)
}

// Entity returns the uniform handle for a registered entity type, or nil
// for an unregistered name. Lookups never panic; callers probing unknown
// names (including promise-protocol probes like "then") simply get nil.
func (r *Registry) Entity(name string) *Entity {
	s, ok := r.schemas.Get(name)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[name]; ok {
		return h
	}
	h := &Entity{registry: r, schema: s}
	r.handles[name] = h
	return h
}

// Types returns registered entity type names in registration order.
func (r *Registry) Types() []string {
	return r.schemas.Names()
}

// Schemas exposes the schema set; providers share it.
func (r *Registry) Schemas() *schema.Set {
	return r.schemas
}

// Events returns the registry's event bus.
func (r *Registry) Events() *Bus {
	return r.bus
}

// Before registers a hook ahead of the given verb on the given type and
// returns its de-registration handle.
func (r *Registry) Before(typeName, action string, fn BeforeHook) (unsubscribe func()) {
	return r.hooks.addBefore(typeName, action, fn)
}

// After registers a hook behind the given verb on the given type and
// returns its de-registration handle.
func (r *Registry) After(typeName, action string, fn AfterHook) (unsubscribe func()) {
	return r.hooks.addAfter(typeName, action, fn)
}

// SearchRequest selects instances of one type by filter.
type SearchRequest struct {
	Type   string         `json:"type"`
	Filter map[string]any `json:"filter,omitempty"`
}

// Search returns the matching instances, or an empty slice for an unknown
// type.
func (r *Registry) Search(ctx context.Context, req SearchRequest) ([]types.Instance, error) {
	if !r.schemas.Has(req.Type) {
		return []types.Instance{}, nil
	}
	p, err := r.activeProvider()
	if err != nil {
		return nil, err
	}
	return p.Find(ctx, req.Type, req.Filter)
}

// FetchRequest retrieves one instance, optionally resolving relationship
// includes onto the result.
type FetchRequest struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Include []string `json:"include,omitempty"`
}

// Fetch returns the instance with requested relationships attached, or
// nil for an unknown type or missing id.
func (r *Registry) Fetch(ctx context.Context, req FetchRequest) (types.Instance, error) {
	s, ok := r.schemas.Get(req.Type)
	if !ok {
		return nil, nil
	}
	p, err := r.activeProvider()
	if err != nil {
		return nil, err
	}
	inst, err := p.Get(ctx, req.Type, req.ID)
	if err != nil || inst == nil {
		return nil, err
	}
	if len(req.Include) > 0 {
		if err := r.resolveIncludes(ctx, s, inst, req.Include); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Do invokes fn with the full registry injected, returning whatever fn
// returns or propagating its error unchanged. This is the composition
// primitive for multi-type transactions.
func (r *Registry) Do(ctx context.Context, fn func(ctx context.Context, reg *Registry) (any, error)) (any, error) {
	if _, err := r.activeProvider(); err != nil {
		return nil, err
	}
	return fn(ctx, r)
}

// Status is a read-only snapshot of the registry.
type Status struct {
	Backend     string         `json:"backend"`
	Initialized bool           `json:"initialized"`
	ContextURL  string         `json:"context"`
	Counts      map[string]int `json:"counts"`
	Alerts      []string       `json:"alerts,omitempty"`
}

// Status reports the active backend kind, the initialization flag, the
// context URL tagging created instances, per-type instance counts, and
// advisory alerts. An uninitialized
// registry reports without triggering lazy initialization.
func (r *Registry) Status(ctx context.Context) Status {
	r.mu.RLock()
	p := r.provider
	st := Status{
		Initialized: r.initialized,
		ContextURL:  r.contextURL,
		Counts:      make(map[string]int),
		Alerts:      append([]string(nil), r.alerts...),
	}
	r.mu.RUnlock()

	if p == nil {
		return st
	}
	st.Backend = p.Kind()
	for _, name := range r.schemas.Names() {
		instances, err := p.Find(ctx, name, nil)
		if err != nil {
			st.Alerts = append(st.Alerts, fmt.Sprintf("count %s: %v", name, err))
			continue
		}
		st.Counts[name] = len(instances)
	}
	return st
}
