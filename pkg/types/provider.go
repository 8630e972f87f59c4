package types

import "context"

// Backend kind names reported by Provider.Kind.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Provider is the pluggable storage backend contract. Every operation is
// scoped by the registered entity type name. Exactly one provider is active
// process-wide at a time; the lifecycle controller owns that wiring.
//
// Each CRUD call is atomic with respect to other in-flight calls: no
// partial writes are observable, concurrent creates receive distinct
// identifiers, and version numbering per instance stays monotonic and
// gap-free.
type Provider interface {
	// Kind returns the backend kind (memory, local, remote).
	Kind() string

	// Create assigns identifier, version 1, and timestamps, persists data,
	// and returns the stored instance. Unknown attribute keys in data are
	// kept, never silently dropped.
	Create(ctx context.Context, typeName string, data Instance) (Instance, error)

	// Find returns all instances of the type matching filter. A nil or
	// empty filter matches every instance.
	Find(ctx context.Context, typeName string, filter map[string]any) ([]Instance, error)

	// Get returns the instance with the given id, or (nil, nil) when no
	// such instance exists.
	Get(ctx context.Context, typeName, id string) (Instance, error)

	// Update merges partial over the existing attributes, advances the
	// version and update timestamp, and preserves identifier, type,
	// context, and creation timestamp. Returns ErrNotFound when the id
	// does not exist.
	Update(ctx context.Context, typeName, id string, partial Instance) (Instance, error)

	// Delete removes the instance. Returns (true, nil) when a record was
	// removed and (false, nil) when it did not exist.
	Delete(ctx context.Context, typeName, id string) (bool, error)

	// Perform executes a custom verb transition and returns the updated
	// instance. Returns ErrNotFound when the id does not exist and
	// ErrUnknownVerb when the verb is not declared for the type.
	Perform(ctx context.Context, typeName, verb, id string, data Instance) (Instance, error)

	// Close releases backend resources. Idempotent.
	Close() error
}
