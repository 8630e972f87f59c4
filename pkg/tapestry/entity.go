package tapestry

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Entity is the uniform per-type handle: CRUD plus custom verbs, every
// mutation wrapped in the before/after hook chains and published to the
// event bus.
type Entity struct {
	registry *Registry
	schema   *schema.Schema
}

// Schema returns the entity type's schema.
func (e *Entity) Schema() *schema.Schema {
	return e.schema
}

// Name returns the entity type name.
func (e *Entity) Name() string {
	return e.schema.Name
}

// Create runs the create pipeline: before hooks, provider create, after
// hooks, event publish. The stored instance has version 1.
func (e *Entity) Create(ctx context.Context, data types.Instance) (types.Instance, error) {
	return e.mutate(ctx, schema.VerbCreate, data, func(p types.Provider, payload types.Instance) (types.Instance, error) {
		return p.Create(ctx, e.schema.Name, payload)
	})
}

// Update merges partial over the stored instance and advances the version
// by exactly 1.
func (e *Entity) Update(ctx context.Context, id string, partial types.Instance) (types.Instance, error) {
	return e.mutate(ctx, schema.VerbUpdate, partial, func(p types.Provider, payload types.Instance) (types.Instance, error) {
		return p.Update(ctx, e.schema.Name, id, payload)
	})
}

// Perform executes a declared custom verb transition.
func (e *Entity) Perform(ctx context.Context, action, id string, data types.Instance) (types.Instance, error) {
	if !e.schema.Custom(action) {
		return nil, fmt.Errorf("%s.%s: %w", e.schema.Name, action, types.ErrUnknownVerb)
	}
	return e.mutate(ctx, action, data, func(p types.Provider, payload types.Instance) (types.Instance, error) {
		return p.Perform(ctx, e.schema.Name, action, id, payload)
	})
}

// VerbFunc is a custom verb bound to its entity handle.
type VerbFunc func(ctx context.Context, id string, data types.Instance) (types.Instance, error)

// Verb returns the bound caller for a declared custom verb, or nil when
// the verb is undeclared or disabled.
func (e *Entity) Verb(action string) VerbFunc {
	if _, ok := e.schema.Verb(action); !ok || !e.schema.Custom(action) {
		return nil
	}
	return func(ctx context.Context, id string, data types.Instance) (types.Instance, error) {
		return e.Perform(ctx, action, id, data)
	}
}

// mutate is the shared pipeline for create, update, and custom verbs.
func (e *Entity) mutate(ctx context.Context, action string, data types.Instance, op func(types.Provider, types.Instance) (types.Instance, error)) (types.Instance, error) {
	if _, ok := e.schema.Verb(action); !ok {
		return nil, fmt.Errorf("%s.%s: %w", e.schema.Name, action, types.ErrUnknownVerb)
	}
	p, err := e.registry.activeProvider()
	if err != nil {
		return nil, err
	}

	payload, err := e.registry.hooks.runBefore(ctx, e.schema.Name, action, data.Clone())
	if err != nil {
		// Before-hook rejection: nothing persisted, error verbatim.
		return nil, err
	}

	inst, err := op(p, payload)
	if err != nil {
		return nil, err
	}

	// The mutation persisted, so the event fires even when an after-hook
	// errors; the hook error still reaches the caller.
	afterErr := e.registry.hooks.runAfter(ctx, e.schema.Name, action, inst, e.registry)
	e.registry.bus.Publish(Event{
		Type:     e.schema.Name,
		Action:   action,
		ID:       inst.ID(),
		Instance: inst,
		At:       time.Now(),
	})
	return inst, afterErr
}

// Get returns the instance, or (nil, nil) when absent.
func (e *Entity) Get(ctx context.Context, id string) (types.Instance, error) {
	p, err := e.registry.activeProvider()
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, e.schema.Name, id)
}

// Find returns all instances matching filter; a nil filter matches all.
func (e *Entity) Find(ctx context.Context, filter map[string]any) ([]types.Instance, error) {
	p, err := e.registry.activeProvider()
	if err != nil {
		return nil, err
	}
	return p.Find(ctx, e.schema.Name, filter)
}

// Delete removes the instance, running the delete hook chain around the
// operation. Absence reports (false, nil), never an error; hooks and the
// delete event fire only when a record was actually removed.
func (e *Entity) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := e.schema.Verb(schema.VerbDelete); !ok {
		return false, fmt.Errorf("%s.delete: %w", e.schema.Name, types.ErrUnknownVerb)
	}
	p, err := e.registry.activeProvider()
	if err != nil {
		return false, err
	}

	// The doomed instance is fetched up front so after-hooks and the
	// event can carry it.
	doomed, err := p.Get(ctx, e.schema.Name, id)
	if err != nil {
		return false, err
	}

	payload := types.Instance{types.AttrID: id}
	if _, err := e.registry.hooks.runBefore(ctx, e.schema.Name, schema.VerbDelete, payload); err != nil {
		return false, err
	}

	removed, err := p.Delete(ctx, e.schema.Name, id)
	if err != nil || !removed {
		return removed, err
	}

	afterErr := e.registry.hooks.runAfter(ctx, e.schema.Name, schema.VerbDelete, doomed, e.registry)
	e.registry.bus.Publish(Event{
		Type:   e.schema.Name,
		Action: schema.VerbDelete,
		ID:     id,
		At:     time.Now(),
	})
	return true, afterErr
}
