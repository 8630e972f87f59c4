// Package memory implements the ephemeral in-process storage provider.
// Nothing survives a process restart. Each CRUD call is atomic under a
// single store-wide lock, which also keeps per-instance version numbering
// monotonic and gap-free under concurrent updates.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/tapestry/internal/record"
	"github.com/mesh-intelligence/tapestry/pkg/query"
	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Store is the ephemeral provider. The zero value is not usable; call New.
type Store struct {
	mu         sync.RWMutex
	schemas    *schema.Set
	contextURL string
	items      map[string]map[string]types.Instance // type -> id -> instance
	order      map[string][]string                  // type -> ids in insertion order
}

// New returns an empty ephemeral store over the given schema set. Created
// instances are tagged with contextURL.
func New(schemas *schema.Set, contextURL string) *Store {
	return &Store{
		schemas:    schemas,
		contextURL: contextURL,
		items:      make(map[string]map[string]types.Instance),
		order:      make(map[string][]string),
	}
}

// Kind returns "memory".
func (s *Store) Kind() string { return types.BackendMemory }

// Close releases nothing; the store is garbage-collected state.
func (s *Store) Close() error { return nil }

func (s *Store) Create(_ context.Context, typeName string, data types.Instance) (types.Instance, error) {
	sch, ok := s.schemas.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("create %s: %w", typeName, types.ErrUnknownType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := record.Stamp(sch, data, s.contextURL, time.Now())
	if s.items[typeName] == nil {
		s.items[typeName] = make(map[string]types.Instance)
	}
	s.items[typeName][inst.ID()] = inst
	s.order[typeName] = append(s.order[typeName], inst.ID())
	return inst.Clone(), nil
}

func (s *Store) Find(_ context.Context, typeName string, filter map[string]any) ([]types.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[typeName]
	out := make([]types.Instance, 0, len(ids))
	for _, id := range ids {
		inst := s.items[typeName][id]
		if query.Matches(inst, filter) {
			out = append(out, inst.Clone())
		}
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, typeName, id string) (types.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.items[typeName][id]
	if !ok {
		return nil, nil
	}
	return inst.Clone(), nil
}

func (s *Store) Update(_ context.Context, typeName, id string, partial types.Instance) (types.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[typeName][id]
	if !ok {
		return nil, fmt.Errorf("update %s/%s: %w", typeName, id, types.ErrNotFound)
	}
	inst := record.Merge(existing, partial, time.Now())
	s.items[typeName][id] = inst
	return inst.Clone(), nil
}

func (s *Store) Delete(_ context.Context, typeName, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[typeName][id]; !ok {
		return false, nil
	}
	delete(s.items[typeName], id)
	ids := s.order[typeName]
	for i, v := range ids {
		if v == id {
			s.order[typeName] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Store) Perform(_ context.Context, typeName, verb, id string, data types.Instance) (types.Instance, error) {
	sch, ok := s.schemas.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("perform %s.%s: %w", typeName, verb, types.ErrUnknownType)
	}
	v, ok := sch.Verb(verb)
	if !ok || !sch.Custom(verb) {
		return nil, fmt.Errorf("perform %s.%s: %w", typeName, verb, types.ErrUnknownVerb)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[typeName][id]
	if !ok {
		return nil, fmt.Errorf("perform %s.%s on %s: %w", typeName, verb, id, types.ErrNotFound)
	}
	now := time.Now()
	inst := record.Merge(existing, sch.VerbPatch(v, data, now), now)
	s.items[typeName][id] = inst
	return inst.Clone(), nil
}
