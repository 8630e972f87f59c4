package tapestry

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// BeforeHook runs before a mutation persists. It receives the candidate
// payload and may return a replacement, which is merged over the previous
// payload. A non-nil error aborts the whole operation before any
// persistence and propagates to the caller unchanged.
type BeforeHook func(ctx context.Context, payload types.Instance) (types.Instance, error)

// AfterHook runs after a mutation persisted. It receives the finalized
// instance and a handle to the full registry, so a hook may create,
// update, or delete instances of other registered types. A non-nil error
// propagates to the original caller.
type AfterHook func(ctx context.Context, inst types.Instance, reg *Registry) error

type beforeEntry struct {
	id int
	fn BeforeHook
}

type afterEntry struct {
	id int
	fn AfterHook
}

// hookSet stores ordered hook chains keyed by (entity type, verb action).
// Execution order is FIFO by registration time; removing one handle never
// reorders the rest.
type hookSet struct {
	mu     sync.RWMutex
	nextID int
	before map[string][]beforeEntry
	after  map[string][]afterEntry
}

func newHookSet() *hookSet {
	return &hookSet{
		before: make(map[string][]beforeEntry),
		after:  make(map[string][]afterEntry),
	}
}

func hookKey(typeName, action string) string {
	return typeName + "\x00" + action
}

func (h *hookSet) addBefore(typeName, action string, fn BeforeHook) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	key := hookKey(typeName, action)
	h.before[key] = append(h.before[key], beforeEntry{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		entries := h.before[key]
		for i, e := range entries {
			if e.id == id {
				h.before[key] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (h *hookSet) addAfter(typeName, action string, fn AfterHook) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	key := hookKey(typeName, action)
	h.after[key] = append(h.after[key], afterEntry{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		entries := h.after[key]
		for i, e := range entries {
			if e.id == id {
				h.after[key] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// runBefore applies the before chain single-threaded, merging each
// non-nil replacement over the accumulated payload. The first error stops
// the chain and is returned verbatim.
func (h *hookSet) runBefore(ctx context.Context, typeName, action string, payload types.Instance) (types.Instance, error) {
	h.mu.RLock()
	entries := append([]beforeEntry(nil), h.before[hookKey(typeName, action)]...)
	h.mu.RUnlock()

	for _, e := range entries {
		replacement, err := e.fn(ctx, payload)
		if err != nil {
			return nil, err
		}
		if replacement == nil {
			continue
		}
		merged := payload.Clone()
		if merged == nil {
			merged = types.Instance{}
		}
		for k, v := range replacement {
			merged[k] = v
		}
		payload = merged
	}
	return payload, nil
}

// runAfter applies the after chain in registration order. The first error
// is returned to the caller; delivery of the remaining hooks stops.
func (h *hookSet) runAfter(ctx context.Context, typeName, action string, inst types.Instance, reg *Registry) error {
	h.mu.RLock()
	entries := append([]afterEntry(nil), h.after[hookKey(typeName, action)]...)
	h.mu.RUnlock()

	for _, e := range entries {
		if err := e.fn(ctx, inst, reg); err != nil {
			return err
		}
	}
	return nil
}

func (h *hookSet) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = make(map[string][]beforeEntry)
	h.after = make(map[string][]afterEntry)
}
